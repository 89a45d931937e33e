package constants

// Folder Names
const (
	StacksDirName      = "stacks"
	TimestampsDirName  = "timestamps"
	CatalogRepoDirName = "catalog-repo"
)

// File Names
const (
	ComposeFileName = "docker-compose.yml"
	EnvFileName     = ".env"
	AppTOMLFileName = "edd.toml"
	LogFileName     = "edd.log"
	CatalogFileName = "README.md"
)

// Cache Keys
const (
	ServiceCacheKey = "applications"
	ScraperCacheKey = "awesome-selfhosted"
)

// Compose labels written on every managed service
const (
	LabelPrefix   = "com.easydockerdeploy."
	LabelID       = LabelPrefix + "id"
	LabelApp      = LabelPrefix + "app"
	LabelCategory = LabelPrefix + "category"
	LabelManaged  = LabelPrefix + "managed"
)

// Marker Prefixes
const (
	UpMarkerPrefix = "up_"
)

// Environment variable overrides
const (
	EnvPrefix       = "EASY_DOCKER_DEPLOY_"
	EnvBaseDir      = EnvPrefix + "BASE_DIR"
	EnvNetwork      = EnvPrefix + "NETWORK"
	EnvPortRange    = EnvPrefix + "PORT_RANGE"
	EnvRegistry     = EnvPrefix + "REGISTRY"
	EnvCacheTTL     = EnvPrefix + "CACHE_TTL"
	EnvGitHubRepo   = EnvPrefix + "GITHUB_REPO"
	EnvGitHubBranch = EnvPrefix + "GITHUB_BRANCH"
	EnvGitHubToken  = EnvPrefix + "GITHUB_TOKEN"
)
