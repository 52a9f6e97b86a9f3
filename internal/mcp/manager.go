package mcp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"sleuth/internal/config"
	"sleuth/internal/logger"
	"sleuth/internal/tool"
)

// Manager coordinates multiple MCP servers and registers their tools
type Manager struct {
	clients  map[string]*Client
	registry *tool.Registry
	log      *logger.Logger
	mu       sync.RWMutex
}

func NewManager(registry *tool.Registry, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{
		clients:  make(map[string]*Client),
		registry: registry,
		log:      log,
	}
}

// Initialize starts all enabled servers concurrently. Failing servers are
// logged and skipped; an error is returned only when every server failed.
func (m *Manager) Initialize(ctx context.Context, cfg config.MCPConfig) error {
	var enabled []config.MCPServerConfig
	names := make(map[string]bool)
	for _, serverCfg := range cfg.Servers {
		if serverCfg.Disabled {
			continue
		}
		if names[serverCfg.Name] {
			return fmt.Errorf("duplicate server name: %s", serverCfg.Name)
		}
		names[serverCfg.Name] = true
		enabled = append(enabled, serverCfg)
	}
	if len(enabled) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errs := make([]error, len(enabled))
	clients := make([]*Client, len(enabled))

	for i, serverCfg := range enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client, err := NewClient(ctx, serverCfg)
			if err != nil {
				errs[i] = fmt.Errorf("server %s: %w", serverCfg.Name, err)
				return
			}
			clients[i] = client
		}()
	}
	wg.Wait()

	// Register in config order so tool order is deterministic
	loaded := 0
	for i, client := range clients {
		if client == nil {
			m.log.Warn("MCP %v", errs[i])
			continue
		}
		if err := m.Add(client); err != nil {
			errs[i] = err
			m.log.Warn("MCP %v", err)
			continue
		}
		loaded++
	}

	if loaded == 0 {
		return fmt.Errorf("all MCP servers failed to initialize: %w", errors.Join(errs...))
	}
	return nil
}

// Add registers every tool of a connected client. All names are checked
// first, so a conflict leaves the registry untouched and closes the client.
func (m *Manager) Add(client *Client) error {
	adapters := make([]*ToolAdapter, 0, len(client.Tools()))
	seen := make(map[string]bool)
	for _, mcpTool := range client.Tools() {
		adapter := NewToolAdapter(client, mcpTool)
		if seen[adapter.Name()] || m.registry.Has(adapter.Name()) {
			client.Close()
			return fmt.Errorf("server %s: failed to register tool %s: %w",
				client.Name(), adapter.Name(), &tool.DuplicateToolError{Name: adapter.Name()})
		}
		seen[adapter.Name()] = true
		adapters = append(adapters, adapter)
	}

	for _, adapter := range adapters {
		if err := m.registry.Register(adapter); err != nil {
			client.Close()
			return fmt.Errorf("server %s: failed to register tool %s: %w", client.Name(), adapter.Name(), err)
		}
	}

	m.mu.Lock()
	m.clients[client.Name()] = client
	m.mu.Unlock()

	m.log.Info("MCP server %s loaded %d tool(s)", client.Name(), len(client.Tools()))
	return nil
}

// Close shuts down all MCP servers
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, client := range m.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("server %s: %w", name, err))
		}
	}
	m.clients = make(map[string]*Client)

	return errors.Join(errs...)
}

// ListServers returns active server names, sorted
func (m *Manager) ListServers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (m *Manager) ServerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
