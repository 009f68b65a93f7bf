package engine

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Names of the toolboxes the engine provides itself.
const (
	ToolboxHTTP     = "http_request"
	ToolboxRetrieve = "retrieve"
)

//go:embed defaults.yaml
var defaultRoster []byte

// Config is the top-level engine configuration.
type Config struct {
	MCPServers []MCPConfig     `yaml:"mcp_servers"`
	Agents     []AgentConfig   `yaml:"agents"`
	EntryAgent string          `yaml:"entry_agent"`
	HTTP       HTTPConfig      `yaml:"http"`
	Retrieve   *RetrieveConfig `yaml:"retrieve"`
}

// HTTPConfig holds http_request tool settings.
type HTTPConfig struct {
	AllowedHosts []string `yaml:"allowed_hosts"`
	BlockPrivate bool     `yaml:"block_private"`
}

// RetrieveConfig enables the retrieve toolbox over a built vector store.
type RetrieveConfig struct {
	WorkDir          string `yaml:"work_dir"`
	EmbeddingModel   string `yaml:"embedding_model"`
	EmbeddingBaseURL string `yaml:"embedding_base_url"`
	APIKey           string `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
}

// MCPConfig describes an MCP server to spawn and connect to over stdio.
type MCPConfig struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Env     []string `yaml:"env"`
	// Optional servers that fail to start leave their toolbox empty instead
	// of failing engine construction.
	Optional bool `yaml:"optional"`
}

// AgentConfig describes an agent to register.
type AgentConfig struct {
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description"`
	Instructions string       `yaml:"instructions"`
	Toolboxes    []string     `yaml:"toolboxes"`
	Delegates    []string     `yaml:"delegates"`
	Options      AgentOptions `yaml:"options"`
}

// AgentOptions holds optional agent behaviour settings.
type AgentOptions struct {
	MaxIterations      int    `yaml:"max_iterations"`
	WindowSize         int    `yaml:"window_size"`
	MaxDelegationDepth int    `yaml:"max_delegation_depth"`
	Timeout            string `yaml:"timeout"` // Duration string, e.g. "2m".
}

// LoadConfig reads a YAML file and returns a Config.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, so API keys can live in the environment (e.g. a .env file)
// rather than in the config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig expands environment variables in data and parses it.
func ParseConfig(data []byte) (Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the built-in agent roster.
func DefaultConfig() (Config, error) {
	return ParseConfig(defaultRoster)
}

// Agent returns the configuration of the named agent.
func (c Config) Agent(name string) (AgentConfig, bool) {
	for _, ac := range c.Agents {
		if ac.Name == name {
			return ac, true
		}
	}
	return AgentConfig{}, false
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	mcpNames := make(map[string]struct{}, len(c.MCPServers))
	for _, m := range c.MCPServers {
		if m.Name == "" {
			return fmt.Errorf("engine: config: mcp server name is required")
		}
		if m.Command == "" {
			return fmt.Errorf("engine: config: mcp server %q: command is required", m.Name)
		}
		if isBuiltinToolbox(m.Name) {
			return fmt.Errorf("engine: config: mcp server %q: name is reserved", m.Name)
		}
		if _, dup := mcpNames[m.Name]; dup {
			return fmt.Errorf("engine: config: duplicate mcp server name %q", m.Name)
		}
		mcpNames[m.Name] = struct{}{}
	}

	if c.Retrieve != nil && c.Retrieve.WorkDir == "" {
		return fmt.Errorf("engine: config: retrieve: work_dir is required")
	}

	if len(c.Agents) == 0 {
		return fmt.Errorf("engine: config: at least one agent is required")
	}

	agentNames := make(map[string]struct{}, len(c.Agents))
	for _, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("engine: config: agent name is required")
		}
		if _, dup := agentNames[a.Name]; dup {
			return fmt.Errorf("engine: config: duplicate agent name %q", a.Name)
		}
		agentNames[a.Name] = struct{}{}
	}

	for _, a := range c.Agents {
		for _, tb := range a.Toolboxes {
			switch {
			case tb == ToolboxRetrieve && c.Retrieve == nil:
				return fmt.Errorf("engine: config: agent %q: toolbox %q requires a retrieve section", a.Name, tb)
			case isBuiltinToolbox(tb):
			default:
				if _, ok := mcpNames[tb]; !ok {
					return fmt.Errorf("engine: config: agent %q: unknown toolbox %q", a.Name, tb)
				}
			}
		}

		for _, d := range a.Delegates {
			if d == a.Name {
				return fmt.Errorf("engine: config: agent %q: cannot delegate to itself", a.Name)
			}
			if _, ok := agentNames[d]; !ok {
				return fmt.Errorf("engine: config: agent %q: unknown delegate %q", a.Name, d)
			}
		}

		if a.Options.Timeout != "" {
			if _, err := time.ParseDuration(a.Options.Timeout); err != nil {
				return fmt.Errorf("engine: config: agent %q: invalid timeout %q", a.Name, a.Options.Timeout)
			}
		}
	}

	if c.EntryAgent != "" {
		if _, ok := agentNames[c.EntryAgent]; !ok {
			return fmt.Errorf("engine: config: entry_agent %q not found in agents", c.EntryAgent)
		}
	}

	return nil
}

func isBuiltinToolbox(name string) bool {
	return name == ToolboxHTTP || name == ToolboxRetrieve
}
