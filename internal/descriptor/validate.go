package descriptor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Platform names end up in image tags and node keys, so they are restricted
// to lowercase alphanumerics with single hyphen separators.
var platformNamePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for an empty tag name.
	_ = v.RegisterValidation("platform_name", func(fl validator.FieldLevel) bool {
		return platformNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// structErrors flattens validator output into one message per failed field.
func structErrors(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "platform_name":
			msgs = append(msgs, fmt.Sprintf("%s must match %s", field, platformNamePattern))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed rule %q", field, fe.Tag()))
		}
	}
	return msgs
}

func validateServiceBlock(b *serviceBlock) []string {
	var errs []string
	errs = append(errs, checkDuplicateLabels("source", sourceNames(b.Sources))...)
	errs = append(errs, checkDuplicateLabels("image", imageSlots(b.Images))...)
	errs = append(errs, checkDuplicateLabels("dependency", dependencyServices(b.Dependencies))...)
	// The base layer has nothing to inherit from, so git sources must carry
	// both url and ref here. Override layers may state either field alone.
	errs = append(errs, validateSources(b.Sources, true)...)
	return errs
}

func validateVersionsFile(f *versionsFile) []string {
	var errs []string

	names := make(map[string]struct{}, len(f.Versions))
	latest := 0
	for _, v := range f.Versions {
		if _, dup := names[v.Name]; dup {
			errs = append(errs, fmt.Sprintf("duplicate version %q", v.Name))
		}
		names[v.Name] = struct{}{}
		if v.Latest {
			latest++
		}
	}
	if latest > 1 {
		errs = append(errs, fmt.Sprintf("at most one version may be flagged latest, found %d", latest))
	}

	// Extra tags share the image tag namespace with version names, so they
	// must be unique across the whole manifest and distinct from every
	// version name.
	tagOwner := make(map[string]string)
	for _, v := range f.Versions {
		for _, tag := range v.Tags {
			if tag == "" {
				errs = append(errs, fmt.Sprintf("version %q: empty tag", v.Name))
				continue
			}
			if _, clash := names[tag]; clash {
				errs = append(errs, fmt.Sprintf("version %q: tag %q collides with a version name", v.Name, tag))
			}
			if owner, dup := tagOwner[tag]; dup {
				errs = append(errs, fmt.Sprintf("version %q: tag %q already used by version %q", v.Name, tag, owner))
				continue
			}
			tagOwner[tag] = v.Name
		}
	}

	for _, v := range f.Versions {
		if v.Overrides == nil {
			continue
		}
		errs = append(errs, prefix(fmt.Sprintf("version %q", v.Name), validateOverrides(v.Overrides))...)
	}
	return errs
}

func validateOverrides(o *overridesBlock) []string {
	var errs []string
	errs = append(errs, checkDuplicateLabels("source", sourceNames(o.Sources))...)
	errs = append(errs, checkDuplicateLabels("image", imageSlots(o.Images))...)
	errs = append(errs, checkDuplicateLabels("dependency", dependencyServices(o.Dependencies))...)
	errs = append(errs, validateSources(o.Sources, false)...)

	seen := make(map[string]struct{}, len(o.Platforms))
	for _, p := range o.Platforms {
		if _, dup := seen[p.Name]; dup {
			errs = append(errs, fmt.Sprintf("duplicate platform override %q", p.Name))
		}
		seen[p.Name] = struct{}{}
		errs = append(errs, prefix(fmt.Sprintf("platform %q", p.Name), validateSources(p.Sources, false))...)
		errs = append(errs, prefix(fmt.Sprintf("platform %q", p.Name), checkDuplicateLabels("source", sourceNames(p.Sources)))...)
	}
	return errs
}

func validatePlatformsFile(f *platformsFile) []string {
	var errs []string
	names := make(map[string]struct{}, len(f.Platforms))
	defaults := 0
	for _, p := range f.Platforms {
		if _, dup := names[p.Name]; dup {
			errs = append(errs, fmt.Sprintf("duplicate platform %q", p.Name))
		}
		names[p.Name] = struct{}{}
		if p.Default {
			defaults++
		}
		errs = append(errs, prefix(fmt.Sprintf("platform %q", p.Name), validateSources(p.Sources, false))...)
	}
	if defaults != 1 {
		errs = append(errs, fmt.Sprintf("exactly one platform must be flagged default, found %d", defaults))
	}
	return errs
}

// validateSources enforces family exclusivity for every source block. When
// requireComplete is set, git sources must additionally carry both url and
// ref.
func validateSources(blocks []sourceBlock, requireComplete bool) []string {
	var errs []string
	for _, s := range blocks {
		switch {
		case s.Path != "" && (s.URL != "" || s.Ref != ""):
			errs = append(errs, fmt.Sprintf("source %q: path is mutually exclusive with url and ref", s.Name))
		case s.Path == "" && s.URL == "" && s.Ref == "":
			errs = append(errs, fmt.Sprintf("source %q: either url and ref or path is required", s.Name))
		case requireComplete && s.Path == "" && (s.URL == "" || s.Ref == ""):
			errs = append(errs, fmt.Sprintf("source %q: git sources require both url and ref", s.Name))
		}
	}
	return errs
}

func checkDuplicateLabels(kind string, labels []string) []string {
	var errs []string
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, dup := seen[l]; dup {
			errs = append(errs, fmt.Sprintf("duplicate %s %q", kind, l))
		}
		seen[l] = struct{}{}
	}
	return errs
}

func prefix(p string, errs []string) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, p+": "+e)
	}
	return out
}

func sourceNames(blocks []sourceBlock) []string {
	names := make([]string, 0, len(blocks))
	for _, b := range blocks {
		names = append(names, b.Name)
	}
	return names
}

func imageSlots(blocks []imageBlock) []string {
	slots := make([]string, 0, len(blocks))
	for _, b := range blocks {
		slots = append(slots, b.Slot)
	}
	return slots
}

func dependencyServices(blocks []dependencyBlock) []string {
	services := make([]string, 0, len(blocks))
	for _, b := range blocks {
		services = append(services, b.Service)
	}
	return services
}
