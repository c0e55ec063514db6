/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package settings

import (
	"fmt"
	"os"

	"github.com/golang/glog"
	"gopkg.in/yaml.v2"
)

// ProjectFile mirrors the optional nativecheck.yml placed next to a
// project. Command line arguments override its values.
type ProjectFile struct {
	Defines      []string `yaml:"defines"`
	Undefines    []string `yaml:"undefines"`
	IncludePaths []string `yaml:"include_paths"`
	Ignore       []string `yaml:"ignore"`
	Enable       []string `yaml:"enable"`
	Suppress     []string `yaml:"suppress"`
	MaxConfigs   int      `yaml:"max_configs"`
	Platform     string   `yaml:"platform"`
}

// LoadProjectFile parses path and folds it into s. A missing file is
// not an error.
func LoadProjectFile(s *Settings, path string) error {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("settings.LoadProjectFile: %v", err)
	}
	var pf ProjectFile
	if err := yaml.Unmarshal(content, &pf); err != nil {
		return fmt.Errorf("settings.LoadProjectFile: %v", err)
	}
	s.UserDefines = append(s.UserDefines, pf.Defines...)
	s.UserUndefs = append(s.UserUndefs, pf.Undefines...)
	s.IncludePaths = append(s.IncludePaths, pf.IncludePaths...)
	s.IgnorePaths = append(s.IgnorePaths, pf.Ignore...)
	for _, e := range pf.Enable {
		if !s.AddEnabled(e) {
			glog.Warningf("project file %s: unknown enable value %q", path, e)
		}
	}
	for _, sup := range pf.Suppress {
		if err := s.Nomsg.Parse(sup); err != nil {
			glog.Warningf("project file %s: %v", path, err)
		}
	}
	if pf.MaxConfigs > 0 {
		s.MaxConfigs = pf.MaxConfigs
	}
	if pf.Platform != "" {
		p, ok := PlatformFromString(pf.Platform)
		if !ok {
			glog.Warningf("project file %s: unknown platform %q", path, pf.Platform)
		} else {
			s.Platform = p
		}
	}
	return nil
}
