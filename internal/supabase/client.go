package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// Client wraps the supabase-go client used for PostgREST access.
type Client struct {
	Supabase *supabase.Client
}

// NewClient connects with the service role key so inserts bypass row level security.
func NewClient(supabaseURL, serviceRoleKey string) (*Client, error) {
	client, err := supabase.NewClient(supabaseURL, serviceRoleKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{Supabase: client}, nil
}
