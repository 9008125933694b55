package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// common applies the checks shared by files and folders: basename pattern,
// creation time window, modification time window. The first failing check
// wins; later checks are not evaluated.
type common struct {
	rules   Rules
	pattern *regexp.Regexp
}

func newCommon(rules Rules) (common, error) {
	c := common{rules: rules}
	if rules.NamePattern != "" {
		p, err := regexp.Compile(rules.NamePattern)
		if err != nil {
			return common{}, fmt.Errorf("compile name pattern %q: %w", rules.NamePattern, err)
		}
		c.pattern = p
	}
	return c, nil
}

func (c common) check(path string, info os.FileInfo, attrs map[string]any) (ok bool, reason string) {
	if c.pattern != nil {
		name := filepath.Base(path)
		if !c.pattern.MatchString(name) {
			return false, fmt.Sprintf("name %q does not match pattern %q", name, c.pattern.String())
		}
	}

	created := creationTime(info)
	attrs[AttrCreationTime] = created
	if min := c.rules.CreatedAfter; min != nil && created.Before(*min) {
		return false, fmt.Sprintf("creation time %s is before minimum allowed %s", created, *min)
	}
	if max := c.rules.CreatedBefore; max != nil && created.After(*max) {
		return false, fmt.Sprintf("creation time %s is after maximum allowed %s", created, *max)
	}

	modified := info.ModTime()
	attrs[AttrModifiedTime] = modified
	if min := c.rules.ModifiedAfter; min != nil && modified.Before(*min) {
		return false, fmt.Sprintf("modified time %s is before minimum allowed %s", modified, *min)
	}
	if max := c.rules.ModifiedBefore; max != nil && modified.After(*max) {
		return false, fmt.Sprintf("modified time %s is after maximum allowed %s", modified, *max)
	}

	return true, ""
}
