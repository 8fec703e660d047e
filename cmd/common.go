/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"github.com/valpere/corpclean/internal/config"
	"github.com/valpere/corpclean/internal/detector"
	"github.com/valpere/corpclean/internal/filter"
)

// buildFilters constructs the optional filters that run after the draft
// filter, in a fixed order: cheapest checks first.
func buildFilters(fc config.FilterConfig, sourceLang, targetLang string) ([]filter.Filter, error) {
	var list []filter.Filter

	if fc.MaxLength > 0 || fc.MaxRatio > 0 {
		lf, err := filter.NewLengthFilter(fc.MaxLength, fc.MaxRatio)
		if err != nil {
			return nil, err
		}
		list = append(list, lf)
	}

	if fc.CheckMarkup {
		list = append(list, filter.NewMarkupFilter())
	}

	if fc.CheckArtifacts {
		list = append(list, filter.NewArtifactFilter())
	}

	if fc.CheckLanguage {
		lf, err := filter.NewLanguageFilter(detector.Shared(), sourceLang, targetLang)
		if err != nil {
			return nil, err
		}
		list = append(list, lf)
	}

	return list, nil
}
