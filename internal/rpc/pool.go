package rpc

import "sync"

// ClientPool holds one client per endpoint name so that commands touching
// the same endpoint share its HTTP connections and request id counter.
type ClientPool struct {
	clients map[string]*Client
	opts    []Option
	mu      sync.RWMutex
}

// NewClientPool returns an empty pool. opts apply to every client it
// creates, before the per-call options.
func NewClientPool(opts ...Option) *ClientPool {
	return &ClientPool{
		clients: make(map[string]*Client),
		opts:    opts,
	}
}

// GetOrCreate returns the client registered under name, creating it for url
// on first use.
func (p *ClientPool) GetOrCreate(name, url string, opts ...Option) (*Client, error) {
	p.mu.RLock()
	if client, ok := p.clients[name]; ok {
		p.mu.RUnlock()
		return client, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another goroutine may have won the race for the write lock.
	if client, ok := p.clients[name]; ok {
		return client, nil
	}

	all := make([]Option, 0, len(p.opts)+len(opts))
	all = append(all, p.opts...)
	all = append(all, opts...)
	client, err := NewClient(name, url, all...)
	if err != nil {
		return nil, err
	}
	p.clients[name] = client
	return client, nil
}

// Get returns the client registered under name, or nil.
func (p *ClientPool) Get(name string) *Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clients[name]
}

func (p *ClientPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}

func (p *ClientPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients = make(map[string]*Client)
}
