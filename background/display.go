/*
 * Tunedeck is a headless music player with rotating backgrounds.
 * Copyright (C) 2020 Tero Vierimaa
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package background

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"
	"tryffel.net/go/tunedeck/config"
)

// Display shows background images. Show cross-fades from previous image to img and returns once
// the fade is complete. Redraw shows the image on display again with another fit, without fade.
type Display interface {
	Show(url string, img image.Image, fit config.FitMode) error
	Redraw(fit config.FitMode) error
}

// FileDisplay composites backgrounds to a fixed size canvas and writes every frame of the fade
// as jpeg to a file. File is replaced atomically, so readers never see a partial frame.
type FileDisplay struct {
	lock    sync.Mutex
	file    string
	width   int
	height  int
	fade    time.Duration
	frames  int
	quality int
	current *image.RGBA
	// source is the unscaled image on display
	source image.Image
	sleep  func(time.Duration)
}

// NewFileDisplay creates a new display from background config.
func NewFileDisplay(conf *config.Background) *FileDisplay {
	return &FileDisplay{
		file:    conf.OutputFile,
		width:   conf.Width,
		height:  conf.Height,
		fade:    conf.FadeDuration(),
		frames:  conf.FadeFrames,
		quality: 90,
		sleep:   time.Sleep,
	}
}

// File returns output file.
func (d *FileDisplay) File() string {
	return d.file
}

func (d *FileDisplay) Show(url string, img image.Image, fit config.FitMode) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	err := os.MkdirAll(filepath.Dir(d.file), 0755)
	if err != nil {
		return fmt.Errorf("create output directory: %v", err)
	}

	incoming := compose(img, d.width, d.height, fit)
	if d.current == nil || d.frames <= 1 {
		err = d.write(incoming)
		if err != nil {
			return err
		}
		d.current = incoming
		d.source = img
		logrus.Debugf("Background set to %s", url)
		return nil
	}

	bounds := incoming.Bounds()
	frame := image.NewRGBA(bounds)
	interval := d.fade / time.Duration(d.frames)
	for i := 1; i <= d.frames; i++ {
		alpha := uint8(255 * i / d.frames)
		draw.Draw(frame, bounds, d.current, bounds.Min, draw.Src)
		draw.DrawMask(frame, bounds, incoming, bounds.Min, image.NewUniform(color.Alpha{A: alpha}),
			image.Point{}, draw.Over)
		err = d.write(frame)
		if err != nil {
			return err
		}
		if i < d.frames {
			d.sleep(interval)
		}
	}
	d.current = incoming
	d.source = img
	logrus.Debugf("Background faded to %s", url)
	return nil
}

func (d *FileDisplay) Redraw(fit config.FitMode) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.source == nil {
		return nil
	}
	frame := compose(d.source, d.width, d.height, fit)
	err := d.write(frame)
	if err != nil {
		return err
	}
	d.current = frame
	logrus.Debugf("Background redrawn with fit %s", fit)
	return nil
}

func (d *FileDisplay) write(img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(d.file), ".background-*.jpg")
	if err != nil {
		return fmt.Errorf("create frame file: %v", err)
	}
	err = jpeg.Encode(tmp, img, &jpeg.Options{Quality: d.quality})
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("encode frame: %v", err)
	}
	err = os.Rename(tmp.Name(), d.file)
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write frame: %v", err)
	}
	return nil
}

// compose scales img on a black canvas. Cover fills the canvas and crops overflow, contain fits
// whole image and letterboxes it.
func compose(img image.Image, width, height int, fit config.FitMode) *image.RGBA {
	dc := gg.NewContext(width, height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	b := img.Bounds()
	sx := float64(width) / float64(b.Dx())
	sy := float64(height) / float64(b.Dy())
	scale := math.Max(sx, sy)
	if fit == config.FitContain {
		scale = math.Min(sx, sy)
	}
	dc.Translate(float64(width)/2, float64(height)/2)
	dc.Scale(scale, scale)
	dc.DrawImageAnchored(img, 0, 0, 0.5, 0.5)

	if rgba, ok := dc.Image().(*image.RGBA); ok {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), dc.Image(), image.Point{}, draw.Src)
	return rgba
}
