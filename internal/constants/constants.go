package constants

// DefaultContextFile is the project context file read when --context is not given.
const DefaultContextFile = "stack.yaml"

// EnvVarEnvironment selects the target environment when --env is not given.
const EnvVarEnvironment = "STACKGEN_ENV"

// Network layout. The topology is always two subnet categories spread over
// two availability zones, each subnet a /28.
const (
	DefaultVPCCIDR = "10.0.0.0/16"
	MaxAZs         = 2
	SubnetMask     = 28
)

// Ports.
const (
	HTTPPort         = 80
	HTTPSPort        = 443
	DocumentDBPort   = 27017
	AnyIPv4          = "0.0.0.0/0"
	DefaultIngressIP = AnyIPv4
)

// Workload defaults.
const (
	DefaultMemoryMiB     = 512
	DefaultCPU           = 256
	DefaultDesiredCount  = 1
	DefaultContainerPort = HTTPPort

	// DefaultImage must be replaced by the operator before deploying.
	DefaultImage = "<accountID>.dkr.ecr.<region>.amazonaws.com/<repo>:<imgversion>"
)

// Auth function defaults.
const (
	DefaultLogRetentionDays = 14
	AuthRuntime             = "provided.al2023"
	AuthHandler             = "bootstrap"
	AuthArchitecture        = "x86_64"
	AuthStageName           = "prod"
)

// DocumentDB defaults.
const (
	DefaultDocDBUser          = "chosenuser"
	DefaultDocDBInstanceClass = "db.t3.medium"
)

// DefaultAssetPrefix is the key prefix for uploaded deployment assets.
const DefaultAssetPrefix = "stackgen-assets"

// DefaultDeployTimeoutMinutes bounds how long deploy and destroy wait on the engine.
const DefaultDeployTimeoutMinutes = 60
