// Package semver formats and parses semantic versions (https://semver.org).
package semver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// V - structured semantic version representation.
type V struct {
	Major, Minor, Patch uint
	PreRelease          string
	BuildMetadata       []string
}

// ErrInvalid - returns by Parse for malformed version.
var ErrInvalid = errors.New("semver: invalid version")

// Parse - parses "[v]MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD.META]".
func Parse(s string) (V, error) {
	v := V{}
	rest := strings.TrimPrefix(s, "v")
	if i := strings.IndexByte(rest, '+'); i >= 0 {
		v.BuildMetadata = strings.Split(rest[i+1:], ".")
		for _, m := range v.BuildMetadata {
			if m == "" {
				return V{}, fmt.Errorf("%w %q: empty build metadata", ErrInvalid, s)
			}
		}
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		v.PreRelease = rest[i+1:]
		if v.PreRelease == "" {
			return V{}, fmt.Errorf("%w %q: empty pre-release", ErrInvalid, s)
		}
		rest = rest[:i]
	}
	core := strings.Split(rest, ".")
	if len(core) != 3 {
		return V{}, fmt.Errorf("%w %q: want MAJOR.MINOR.PATCH", ErrInvalid, s)
	}
	numbers := [3]*uint{&v.Major, &v.Minor, &v.Patch}
	for i, part := range core {
		if len(part) > 1 && part[0] == '0' {
			return V{}, fmt.Errorf("%w %q: leading zero", ErrInvalid, s)
		}
		n, err := strconv.ParseUint(part, 10, 0)
		if err != nil {
			return V{}, fmt.Errorf("%w %q: %v", ErrInvalid, s, err)
		}
		*numbers[i] = uint(n)
	}
	return v, nil
}

func (v V) String() string {
	buf := strings.Builder{}
	buf.WriteString(strconv.FormatUint(uint64(v.Major), 10))
	buf.WriteByte('.')
	buf.WriteString(strconv.FormatUint(uint64(v.Minor), 10))
	buf.WriteByte('.')
	buf.WriteString(strconv.FormatUint(uint64(v.Patch), 10))
	if v.PreRelease != "" {
		buf.WriteByte('-')
		buf.WriteString(v.PreRelease)
	}
	if len(v.BuildMetadata) > 0 {
		buf.WriteByte('+')
		buf.WriteString(strings.Join(v.BuildMetadata, "."))
	}

	return buf.String()
}

// WithBuild - returns copy of v with build metadata appended.
func (v V) WithBuild(meta ...string) V {
	v.BuildMetadata = append(append([]string{}, v.BuildMetadata...), meta...)
	return v
}
