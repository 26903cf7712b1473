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

package danbooru

import (
	"strconv"
)

type params map[string]string

// get pointer to map for convinience
func (p *params) ptr() map[string]string {
	return *p
}

func (p *params) setTags(tags string) {
	p.ptr()["tags"] = tags
}

func (p *params) setLimit(n int) {
	(*p)["limit"] = strconv.Itoa(n)
}

func (p *params) enableRandom() {
	(*p)["random"] = "true"
}

func (p *params) setCredentials(login, apiKey string) {
	if login == "" || apiKey == "" {
		return
	}
	ptr := p.ptr()
	ptr["login"] = login
	ptr["api_key"] = apiKey
}
