package domain

import "sync"

// RuntimeConfig tracks which optional capabilities are live in this
// process. Flags flip at runtime when services are configured or torn
// down via the API. Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	storageDriver string

	chatAvailable  bool
	queueAvailable bool
}

// NewRuntimeConfig creates a runtime configuration for the given storage driver.
func NewRuntimeConfig(storageDriver string) *RuntimeConfig {
	return &RuntimeConfig{
		storageDriver: storageDriver,
	}
}

// StorageDriver returns the configured storage driver name.
func (c *RuntimeConfig) StorageDriver() string {
	return c.storageDriver
}

// ChatAvailable reports whether a chat model is configured and reachable.
func (c *RuntimeConfig) ChatAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chatAvailable
}

// SetChatAvailable updates the chat capability flag.
func (c *RuntimeConfig) SetChatAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatAvailable = available
}

// QueueAvailable reports whether a task queue is configured.
func (c *RuntimeConfig) QueueAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queueAvailable
}

// SetQueueAvailable updates the task queue capability flag.
func (c *RuntimeConfig) SetQueueAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queueAvailable = available
}
