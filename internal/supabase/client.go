package supabase

import (
	"github.com/supabase-community/supabase-go"
	"thumbnail-editor-backend/internal/config"
)

type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

// NewClient builds a client with the publishable key. It is what the auth
// endpoints use, exactly as the browser would.
func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}

// NewServiceClient builds a client with the service role key for server
// side table access. Row level security does not apply to it, so callers
// must scope every query to the owner themselves.
func NewServiceClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}
