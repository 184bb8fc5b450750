/*
Copyright © 2018 the disTSEB authors.
This file is part of disTSEB.

disTSEB is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

disTSEB is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with disTSEB.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command distseb is a command-line interface for disaggregating
// coarse-resolution evaporative fraction with a two-source surface
// energy balance model.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/distseb/distsebutil"
)

func main() {
	if err := distsebutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
