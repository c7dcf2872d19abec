package server

import (
	"errors"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"
)

// Registry holds one DiscordServer per guild for the life of the process
type Registry struct {
	mu      sync.Mutex
	servers map[snowflake.ID]*DiscordServer
}

func NewRegistry() *Registry {
	return &Registry{servers: map[snowflake.ID]*DiscordServer{}}
}

// GetServer returns the registered server for candidate's guild, registering candidate if there is none
func (r *Registry) GetServer(candidate *DiscordServer) *DiscordServer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.servers[candidate.GuildID()]; ok {
		return existing
	}
	r.servers[candidate.GuildID()] = candidate
	return candidate
}

func (r *Registry) Lookup(guildID snowflake.ID) (*DiscordServer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[guildID]
	return s, ok
}

func (r *Registry) Servers() []*DiscordServer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Values(r.servers)
}

// Shutdown stops playback and leaves voice in every guild
func (r *Registry) Shutdown() error {
	var errs []error
	for _, s := range r.Servers() {
		if err := s.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
