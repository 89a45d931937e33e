// Package validate holds the input rules shared by configuration loading and
// deployment planning: port mappings, Docker network names, environment
// variable names, volume mappings, image references and writable paths.
//
// Every rule is an ozzo-validation rule so callers can compose them into
// struct validation with validation.ValidateStruct, or call the helpers
// directly for a single value.
package validate

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/distribution/reference"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	networkNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)
	envVarNameRegex  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// NetworkName matches Docker network names.
var NetworkName = validation.Match(networkNameRegex).
	ErrorObject(validation.NewError("validate.network_name", "must start with an alphanumeric character and contain only alphanumerics, underscores, periods and hyphens"))

// EnvVarName matches environment variable names.
var EnvVarName = validation.Match(envVarNameRegex).
	ErrorObject(validation.NewError("validate.env_var_name", "must start with a letter or underscore and contain only alphanumerics and underscores"))

// PortSpec accepts "8080" or "8080:80" with every number in 1-65535.
var PortSpec = validation.By(func(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validate.port_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	_, err := NormalizePortSpec(s)
	return err
})

// VolumeSpec accepts "host:container" or "host:container:mode" where the
// container side is absolute and mode is ro or rw.
var VolumeSpec = validation.By(func(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validate.volume_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	return validateVolume(s)
})

// WritablePath creates the directory if needed and checks that it can be written to.
var WritablePath = validation.By(func(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validate.path_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	return EnsureWritable(s)
})

// Port validates a single port number.
func Port(port int) error {
	return validation.Validate(port, validation.Required, validation.Min(1), validation.Max(65535))
}

// NormalizePort turns a bare port number into a "p:p" mapping.
func NormalizePort(port int) (string, error) {
	if err := Port(port); err != nil {
		return "", fmt.Errorf("port %d is out of range (1-65535): %w", port, err)
	}
	return fmt.Sprintf("%d:%d", port, port), nil
}

// NormalizePortSpec validates "8080" or "8080:80" and returns the host:container form.
func NormalizePortSpec(spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	parts := strings.Split(spec, ":")
	if len(parts) > 2 {
		return "", validation.NewError("validate.port_format", fmt.Sprintf("invalid port mapping format: %s", spec))
	}

	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || p == "" || strings.HasPrefix(p, "+") || strings.HasPrefix(p, "-") {
			return "", validation.NewError("validate.port_format", fmt.Sprintf("invalid port specification: %s", spec))
		}
		if Port(n) != nil {
			return "", validation.NewError("validate.port_range", fmt.Sprintf("port numbers out of range in mapping: %s", spec))
		}
		nums = append(nums, n)
	}

	if len(nums) == 1 {
		return fmt.Sprintf("%d:%d", nums[0], nums[0]), nil
	}
	return fmt.Sprintf("%d:%d", nums[0], nums[1]), nil
}

// ParsePortRange parses "a-b" into its bounds.
func ParsePortRange(s string) (int, int, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid port range %q: expected <start>-<end>", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid port range %q: %w", s, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid port range %q: %w", s, err)
	}
	if Port(start) != nil || Port(end) != nil || start > end {
		return 0, 0, fmt.Errorf("invalid port range %q: bounds must be within 1-65535 and ascending", s)
	}
	return start, end, nil
}

// ValidateNetworkName checks a Docker network name.
func ValidateNetworkName(name string) error {
	return validation.Validate(name, validation.Required, NetworkName)
}

// ValidateEnvVars checks every key of an environment map.
func ValidateEnvVars(env map[string]string) error {
	errs := validation.Errors{}
	for key := range env {
		if err := validation.Validate(key, validation.Required, EnvVarName); err != nil {
			errs[key] = err
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateVolume(spec string) error {
	parts := strings.Split(spec, ":")
	// Windows drive letters ("C:/data:/data") put an extra colon in the host side
	if len(parts) >= 3 && len(parts[0]) == 1 && filepath.VolumeName(parts[0]+":") != "" {
		parts = append([]string{parts[0] + ":" + parts[1]}, parts[2:]...)
	}
	if len(parts) < 2 || len(parts) > 3 {
		return validation.NewError("validate.volume_format", fmt.Sprintf("invalid volume mapping format: %s", spec))
	}
	if parts[0] == "" {
		return validation.NewError("validate.volume_host", fmt.Sprintf("missing host path in volume mapping: %s", spec))
	}
	if !path.IsAbs(parts[1]) {
		return validation.NewError("validate.volume_container", fmt.Sprintf("invalid container path in volume mapping: %s", spec))
	}
	if len(parts) == 3 && parts[2] != "ro" && parts[2] != "rw" {
		return validation.NewError("validate.volume_mode", fmt.Sprintf("invalid volume mode %q, expected ro or rw", parts[2]))
	}
	return nil
}

// EnsureWritable creates dir when missing and verifies a file can be created inside it.
func EnsureWritable(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return fmt.Errorf("invalid path %s: %w", dir, err)
	}
	probe, err := os.CreateTemp(abs, ".edd-write-check-*")
	if err != nil {
		return fmt.Errorf("path %s is not writable: %w", dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}

// ErrInvalidImage is returned for image references that cannot be normalized.
var ErrInvalidImage = errors.New("invalid image reference")

// NormalizeImage turns a short image reference into its fully qualified form,
// e.g. "nginx" -> "docker.io/library/nginx:latest".
// References without a registry host may have at most two path components.
func NormalizeImage(image string) (string, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return "", fmt.Errorf("%w: empty reference", ErrInvalidImage)
	}

	first, _, hasSlash := strings.Cut(image, "/")
	hasRegistry := hasSlash && (strings.ContainsAny(first, ".:") || first == "localhost")
	if !hasRegistry && strings.Count(image, "/") > 1 {
		return "", fmt.Errorf("%w: %s", ErrInvalidImage, image)
	}

	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidImage, image, err)
	}
	return reference.TagNameOnly(named).String(), nil
}
