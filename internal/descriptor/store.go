package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/MahdiBaghbani/containers-sub001/internal/config"
	"github.com/MahdiBaghbani/containers-sub001/internal/fsutil"
)

// Document names a service directory may contain. The repository
// configuration lives one level up, next to the services directory.
const (
	ServiceFileName   = "service.hcl"
	VersionsFileName  = "versions.hcl"
	PlatformsFileName = "platforms.hcl"
	RepoFileName      = "forge.hcl"
)

// Store reads descriptor documents from a services directory. Documents are
// parsed fresh on every call; the store holds no state between loads.
type Store struct {
	servicesDir string
	repoRoot    string
	validate    *validator.Validate
}

// New returns a store rooted at servicesDir. The repository configuration
// is looked up in its parent directory.
func New(servicesDir string) *Store {
	return &Store{
		servicesDir: servicesDir,
		repoRoot:    filepath.Dir(servicesDir),
		validate:    newValidator(),
	}
}

// Services lists every directory under the services root that contains a
// service descriptor, in lexical order.
func (s *Store) Services() ([]string, error) {
	return fsutil.DiscoverServices(s.servicesDir, ServiceFileName)
}

// ServiceDir returns the directory holding the named service's documents
// and its default build context.
func (s *Store) ServiceDir(name string) string {
	return filepath.Join(s.servicesDir, name)
}

// RepoRoot returns the directory holding the repository configuration, the
// parent of the services directory.
func (s *Store) RepoRoot() string {
	return s.repoRoot
}

// LoadService reads and validates the service descriptor for name.
func (s *Store) LoadService(name string) (*config.ServiceConfig, error) {
	path := filepath.Join(s.ServiceDir(name), ServiceFileName)
	if err := s.statDocument(name, "service descriptor", path); err != nil {
		return nil, err
	}

	var root serviceFile
	if err := parseFile(path, &root); err != nil {
		return nil, err
	}
	if root.Service == nil {
		return nil, &config.ValidationError{Service: name, Field: ServiceFileName, Reason: "missing service block"}
	}

	b := root.Service
	if b.Name != name {
		return nil, &config.ValidationError{
			Service: name,
			Field:   ServiceFileName,
			Reason:  fmt.Sprintf("service block label %q does not match directory name", b.Name),
		}
	}

	var errs []string
	errs = append(errs, structErrors(s.validate.Struct(b))...)
	errs = append(errs, validateServiceBlock(b)...)
	if b.Version != "" && (s.hasDocument(name, VersionsFileName) || s.hasDocument(name, PlatformsFileName)) {
		errs = append(errs, "a fixed version is forbidden once a version or platform manifest exists")
	}
	cfg, terrs := translateService(b)
	errs = append(errs, terrs...)
	if len(errs) > 0 {
		return nil, &config.ValidationError{Service: name, Field: ServiceFileName, Reason: strings.Join(errs, "; ")}
	}

	return cfg, nil
}

// LoadVersions reads and validates the version manifest for name. A missing
// manifest is reported as NotFoundError.
func (s *Store) LoadVersions(name string) (*config.VersionManifest, error) {
	path := filepath.Join(s.ServiceDir(name), VersionsFileName)
	if err := s.statDocument(name, "version manifest", path); err != nil {
		return nil, err
	}

	var root versionsFile
	if err := parseFile(path, &root); err != nil {
		return nil, err
	}

	var errs []string
	errs = append(errs, structErrors(s.validate.Struct(&root))...)
	errs = append(errs, validateVersionsFile(&root)...)
	m, terrs := translateVersions(&root)
	errs = append(errs, terrs...)
	if len(errs) > 0 {
		return nil, &config.ValidationError{Service: name, Field: VersionsFileName, Reason: strings.Join(errs, "; ")}
	}

	return m, nil
}

// LoadPlatforms reads and validates the platform manifest for name. A
// missing manifest is reported as NotFoundError.
func (s *Store) LoadPlatforms(name string) (*config.PlatformManifest, error) {
	path := filepath.Join(s.ServiceDir(name), PlatformsFileName)
	if err := s.statDocument(name, "platform manifest", path); err != nil {
		return nil, err
	}

	var root platformsFile
	if err := parseFile(path, &root); err != nil {
		return nil, err
	}

	var errs []string
	errs = append(errs, structErrors(s.validate.Struct(&root))...)
	errs = append(errs, validatePlatformsFile(&root)...)
	m, terrs := translatePlatforms(&root)
	errs = append(errs, terrs...)
	if len(errs) > 0 {
		return nil, &config.ValidationError{Service: name, Field: PlatformsFileName, Reason: strings.Join(errs, "; ")}
	}

	return m, nil
}

// LoadRepoConfig reads the repository configuration next to the services
// directory. An absent file yields the zero configuration, not an error.
func (s *Store) LoadRepoConfig() (*config.RepoConfig, error) {
	path := filepath.Join(s.repoRoot, RepoFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &config.RepoConfig{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var root repoFile
	if err := parseFile(path, &root); err != nil {
		return nil, err
	}

	cfg := &config.RepoConfig{}
	if d := root.Defaults; d != nil {
		cfg.Registry = d.Registry
		cfg.CertDir = d.CertDir
		cfg.CacheDir = d.CacheDir
	}
	return cfg, nil
}

func (s *Store) statDocument(service, kind, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Service: service, Kind: kind, Path: path}
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

func (s *Store) hasDocument(service, file string) bool {
	_, err := os.Stat(filepath.Join(s.ServiceDir(service), file))
	return err == nil
}

// parseFile parses one HCL document into target. Both syntax and decode
// problems surface as ParseError carrying the original diagnostics.
func parseFile(path string, target any) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return &ParseError{Path: path, Diags: diags}
	}
	if diags := gohcl.DecodeBody(file.Body, nil, target); diags.HasErrors() {
		return &ParseError{Path: path, Diags: diags}
	}
	return nil
}
