package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrD1360/fargate-vpc-stack/internal/constants"
)

var (
	// ErrNoEnvironment means no environment was selected, or the selected
	// record carries no env value.
	ErrNoEnvironment = errors.New("no environment context supplied")
	// ErrUnknownEnvironment means the selected environment has no record.
	ErrUnknownEnvironment = errors.New("unknown environment")
	// ErrNoProject means the context file does not name a project.
	ErrNoProject = errors.New("no project identifier supplied")
)

// File is the project context file (stack.yaml).
type File struct {
	Project      string                  `yaml:"project"`
	Environments map[string]*Environment `yaml:"environments"`
}

// Environment is one per-environment record of the context file.
type Environment struct {
	Env     string            `yaml:"env"`
	Account string            `yaml:"account,omitempty"`
	Region  string            `yaml:"region,omitempty"`
	Tags    map[string]string `yaml:"tags,omitempty"`
	// AssetBucket receives packaged function code on deploy.
	AssetBucket string `yaml:"assetBucket,omitempty"`

	Network    NetworkConfig    `yaml:"network,omitempty"`
	Security   SecurityConfig   `yaml:"security,omitempty"`
	Compute    ComputeConfig    `yaml:"compute,omitempty"`
	Auth       AuthConfig       `yaml:"auth,omitempty"`
	DocumentDB DocumentDBConfig `yaml:"documentDB,omitempty"`
	Features   Features         `yaml:"features,omitempty"`
}

type NetworkConfig struct {
	VPCCIDR string `yaml:"vpcCidr,omitempty"`
}

type SecurityConfig struct {
	// IngressCIDR is the only range admitted by the edge group. A bare
	// address is widened to a /32, or a /128 for IPv6.
	IngressCIDR string `yaml:"ingressCidr,omitempty"`
}

type ComputeConfig struct {
	Image         string `yaml:"image,omitempty"`
	CPU           int    `yaml:"cpu,omitempty"`
	MemoryMiB     int    `yaml:"memoryMiB,omitempty"`
	DesiredCount  *int   `yaml:"desiredCount,omitempty"`
	ContainerPort int    `yaml:"containerPort,omitempty"`
}

// Replicas is the resolved desired task count. An explicit zero is kept.
func (c ComputeConfig) Replicas() int {
	if c.DesiredCount == nil {
		return constants.DefaultDesiredCount
	}
	return *c.DesiredCount
}

type AuthConfig struct {
	LogRetentionDays int `yaml:"logRetentionDays,omitempty"`
}

type DocumentDBConfig struct {
	MasterUser    string `yaml:"masterUser,omitempty"`
	InstanceClass string `yaml:"instanceClass,omitempty"`
}

// Features toggles resources that are declared only on request.
type Features struct {
	DocumentDB     bool `yaml:"documentDB,omitempty"`
	TransferServer bool `yaml:"transferServer,omitempty"`
}

// StackConfig is the resolved, defaulted configuration handed to composition.
type StackConfig struct {
	Project string
	// EnvName is the key the record was selected by; Env is its env value.
	EnvName string
	Env     string
	Account string
	Region  string
	Tags    map[string]string

	AssetBucket string

	Network    NetworkConfig
	Security   SecurityConfig
	Compute    ComputeConfig
	Auth       AuthConfig
	DocumentDB DocumentDBConfig
	Features   Features
}

// Load reads and parses a context file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading context file: %w", err)
	}
	return Parse(data)
}

// Parse decodes context file contents. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing context file: %w", err)
	}
	return &f, nil
}

// EnvironmentNames returns the declared environment names, sorted.
func (f *File) EnvironmentNames() []string {
	names := make([]string, 0, len(f.Environments))
	for name := range f.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve selects the named environment record and applies defaults.
func (f *File) Resolve(envName string) (*StackConfig, error) {
	if envName == "" {
		return nil, fmt.Errorf("%w: pass --env or set %s", ErrNoEnvironment, constants.EnvVarEnvironment)
	}
	rec, ok := f.Environments[envName]
	if !ok || rec == nil {
		return nil, fmt.Errorf("%w %q (declared: %s)", ErrUnknownEnvironment, envName, strings.Join(f.EnvironmentNames(), ", "))
	}

	cfg := &StackConfig{
		Project:     f.Project,
		EnvName:     envName,
		Env:         rec.Env,
		Account:     rec.Account,
		Region:      rec.Region,
		Tags:        rec.Tags,
		AssetBucket: rec.AssetBucket,
		Network:     rec.Network,
		Security:    rec.Security,
		Compute:     rec.Compute,
		Auth:        rec.Auth,
		DocumentDB:  rec.DocumentDB,
		Features:    rec.Features,
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills every unset field.
func (c *StackConfig) ApplyDefaults() {
	if c.Network.VPCCIDR == "" {
		c.Network.VPCCIDR = constants.DefaultVPCCIDR
	}
	if c.Security.IngressCIDR == "" {
		c.Security.IngressCIDR = constants.DefaultIngressIP
	}
	c.Security.IngressCIDR = widenAddr(c.Security.IngressCIDR)
	if c.Compute.Image == "" {
		c.Compute.Image = constants.DefaultImage
	}
	if c.Compute.CPU == 0 {
		c.Compute.CPU = constants.DefaultCPU
	}
	if c.Compute.MemoryMiB == 0 {
		c.Compute.MemoryMiB = constants.DefaultMemoryMiB
	}
	if c.Compute.DesiredCount == nil {
		n := constants.DefaultDesiredCount
		c.Compute.DesiredCount = &n
	}
	if c.Compute.ContainerPort == 0 {
		c.Compute.ContainerPort = constants.DefaultContainerPort
	}
	if c.Auth.LogRetentionDays == 0 {
		c.Auth.LogRetentionDays = constants.DefaultLogRetentionDays
	}
	if c.DocumentDB.MasterUser == "" {
		c.DocumentDB.MasterUser = constants.DefaultDocDBUser
	}
	if c.DocumentDB.InstanceClass == "" {
		c.DocumentDB.InstanceClass = constants.DefaultDocDBInstanceClass
	}
}

// Validate checks the preconditions composition relies on.
func (c *StackConfig) Validate() error {
	if c == nil || c.Env == "" {
		return ErrNoEnvironment
	}
	if c.Project == "" {
		return ErrNoProject
	}
	if n := c.Compute.Replicas(); n < 0 {
		return fmt.Errorf("compute.desiredCount must not be negative, got %d", n)
	}
	p, err := netip.ParsePrefix(c.Security.IngressCIDR)
	if err != nil {
		return fmt.Errorf("security.ingressCidr: %w", err)
	}
	if p.Addr().Is4In6() {
		return fmt.Errorf("security.ingressCidr: %s is an IPv4-mapped prefix; write it as IPv4", p)
	}
	if c.Compute.ContainerPort < 1 || c.Compute.ContainerPort > 65535 {
		return fmt.Errorf("compute.containerPort out of range: %d", c.Compute.ContainerPort)
	}
	return nil
}

// widenAddr turns a bare address into a single-host prefix of the right
// family and writes prefixes in canonical form. IPv4-mapped IPv6 addresses
// are unmapped. Anything unparsable is returned as is and left to Validate.
func widenAddr(s string) string {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return s
		}
		return p.String()
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return s
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()).String()
}

// IngressIsIPv6 reports whether the edge ingress range is an IPv6 prefix.
func (c *StackConfig) IngressIsIPv6() bool {
	p, err := netip.ParsePrefix(c.Security.IngressCIDR)
	return err == nil && p.Addr().Is6()
}

// StackName is the CloudFormation stack name for this environment.
func (c *StackConfig) StackName() string {
	return c.Project + "-" + c.Env
}
