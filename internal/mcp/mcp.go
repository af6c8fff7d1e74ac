package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/strataops/strata-triage/model/config"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// Service talks to the external research providers exposed over MCP. The
// deep-research handling path runs its queries through here.
type Service interface {
	Close() error
	// GetAvailableToolsWithClient lists discovered tools per client.
	GetAvailableToolsWithClient() map[string][]mcp.Tool
	// ExecuteTool connects, calls one tool and closes the session.
	ExecuteTool(ctx context.Context, clientName string, toolName string, arguments json.RawMessage) (string, error)
	// AddOrUpdateClient registers a client config and discovers its tools.
	AddOrUpdateClient(name string, cfg config.Mcp) error
	RemoveClient(name string) error
}

type client struct {
	log         *logrus.Logger
	clients     map[string]*mcp.Client
	configs     map[string]config.Mcp
	tools       map[string]map[string]mcp.Tool
	mu          sync.RWMutex
	appVersion  string
	projectName string
}

// transportWithAuth adds the bearer token to every request.
type transportWithAuth struct {
	http.RoundTripper
	token string
}

func (t *transportWithAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	req2.Header.Set("Authorization", "Bearer "+t.token)
	return t.RoundTripper.RoundTrip(req2)
}

func NewClient(log *logrus.Logger, mcpConfigs map[string]config.Mcp, appVersion, projectName string) (Service, error) {
	c := &client{
		log:         log,
		clients:     make(map[string]*mcp.Client),
		configs:     make(map[string]config.Mcp),
		tools:       make(map[string]map[string]mcp.Tool),
		appVersion:  appVersion,
		projectName: projectName,
	}

	for name, cfg := range mcpConfigs {
		if err := c.AddOrUpdateClient(name, cfg); err != nil {
			// One unreachable research provider must not block the rest.
			log.Errorf("init MCP client '%s' failed: %v", name, err)
		}
	}

	return c, nil
}

func (c *client) AddOrUpdateClient(name string, cfg config.Mcp) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clients[name] = mcp.NewClient(&mcp.Implementation{Name: c.projectName, Version: c.appVersion}, nil)
	c.configs[name] = cfg

	httpClient := &http.Client{
		Transport: &transportWithAuth{
			RoundTripper: http.DefaultTransport,
			token:        cfg.Auth,
		},
	}
	transport := &mcp.StreamableClientTransport{
		Endpoint:   cfg.Url,
		HTTPClient: httpClient,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := c.clients[name].Connect(ctx, transport, nil)
	if err != nil {
		c.log.Errorf("tool discovery for MCP service '%s' failed: %v", name, err)
		delete(c.tools, name)
		return nil
	}
	defer session.Close()

	loadedTools := make(map[string]mcp.Tool)
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			c.log.Errorf("listing tools from MCP service '%s' failed: %v", name, err)
			delete(c.tools, name)
			return nil
		}
		loadedTools[tool.Name] = *tool
	}

	c.tools[name] = loadedTools
	c.log.Infof("discovered %d tools on MCP service '%s'", len(loadedTools), name)
	return nil
}

func (c *client) RemoveClient(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.clients, name)
	delete(c.configs, name)
	delete(c.tools, name)
	c.log.Infof("removed MCP client: %s", name)
	return nil
}

func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name := range c.clients {
		delete(c.clients, name)
		delete(c.configs, name)
		delete(c.tools, name)
	}
	return nil
}

func (c *client) GetAvailableToolsWithClient() map[string][]mcp.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	toolsCopy := make(map[string][]mcp.Tool, len(c.tools))
	for clientName, tools := range c.tools {
		clientToolsList := make([]mcp.Tool, 0, len(tools))
		for _, tool := range tools {
			clientToolsList = append(clientToolsList, tool)
		}
		toolsCopy[clientName] = clientToolsList
	}
	return toolsCopy
}

// coerceArguments fixes the most common LLM mistake: string values where the
// tool schema wants a number or boolean.
func (c *client) coerceArguments(arguments json.RawMessage, schema *jsonschema.Schema) (json.RawMessage, error) {
	if len(arguments) == 0 || string(arguments) == "null" {
		return arguments, nil
	}

	var argsMap map[string]interface{}
	if err := json.Unmarshal(arguments, &argsMap); err != nil {
		return nil, fmt.Errorf("decode arguments as map: %w", err)
	}

	if schema.Properties == nil {
		return arguments, nil
	}

	for key, value := range argsMap {
		propSchema, ok := schema.Properties[key]
		if !ok {
			continue
		}

		expectedType := propSchema.Type
		if expectedType == "" {
			continue
		}

		if valStr, ok := value.(string); ok {
			switch expectedType {
			case "integer":
				if intVal, err := strconv.ParseInt(valStr, 10, 64); err == nil {
					argsMap[key] = intVal
				}
			case "number":
				if floatVal, err := strconv.ParseFloat(valStr, 64); err == nil {
					argsMap[key] = floatVal
				}
			case "boolean":
				if boolVal, err := strconv.ParseBool(valStr); err == nil {
					argsMap[key] = boolVal
				}
			}
		}
	}

	coercedJSON, err := json.Marshal(argsMap)
	if err != nil {
		return nil, fmt.Errorf("re-encode coerced arguments: %w", err)
	}

	return coercedJSON, nil
}

func (c *client) ExecuteTool(ctx context.Context, clientName string, toolName string, arguments json.RawMessage) (string, error) {
	c.mu.RLock()
	cfg, cfgOk := c.configs[clientName]
	mcpClient, clientOk := c.clients[clientName]
	clientTools, toolsOk := c.tools[clientName]
	var tool mcp.Tool
	var toolOk bool
	if toolsOk {
		tool, toolOk = clientTools[toolName]
	}
	c.mu.RUnlock()

	if !cfgOk {
		return "", fmt.Errorf("no MCP client config named '%s'", clientName)
	}
	if !clientOk {
		return "", fmt.Errorf("no MCP client named '%s'", clientName)
	}

	finalArguments := arguments
	if toolOk && tool.InputSchema != nil {
		schemaBytes, err := json.Marshal(tool.InputSchema)
		if err != nil {
			c.log.Warnf("marshal InputSchema of tool '%s' failed: %v; using raw arguments", toolName, err)
		} else {
			var inputSchema jsonschema.Schema
			if err := json.Unmarshal(schemaBytes, &inputSchema); err != nil {
				c.log.Warnf("unmarshal InputSchema of tool '%s' failed: %v; using raw arguments", toolName, err)
			} else if correctedArgs, err := c.coerceArguments(arguments, &inputSchema); err != nil {
				c.log.Warnf("argument coercion for tool '%s' failed: %v; using raw arguments", toolName, err)
			} else {
				finalArguments = correctedArgs
			}
		}
	}

	httpClient := &http.Client{
		Transport: &transportWithAuth{
			RoundTripper: http.DefaultTransport,
			token:        cfg.Auth,
		},
	}
	transport := &mcp.StreamableClientTransport{
		Endpoint:   cfg.Url,
		HTTPClient: httpClient,
	}

	// Connect, call, close per invocation.
	session, err := mcpClient.Connect(ctx, transport, nil)
	if err != nil {
		return "", fmt.Errorf("connect to MCP service '%s': %w", clientName, err)
	}
	defer session.Close()

	params := mcp.CallToolParams{
		Name:      toolName,
		Arguments: finalArguments,
	}

	res, err := session.CallTool(ctx, &params)
	if err != nil {
		return "", fmt.Errorf("call tool '%s': %w", params.Name, err)
	}

	if res.IsError {
		var errorContent strings.Builder
		for _, content := range res.Content {
			if textContent, ok := content.(*mcp.TextContent); ok {
				errorContent.WriteString(textContent.Text)
			}
		}
		return "", fmt.Errorf("tool '%s' returned an error: %s", params.Name, errorContent.String())
	}

	var resultBuilder strings.Builder
	for _, content := range res.Content {
		if textContent, ok := content.(*mcp.TextContent); ok {
			resultBuilder.WriteString(textContent.Text)
		}
	}
	return resultBuilder.String(), nil
}
