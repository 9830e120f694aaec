package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps an arbitrary rueidis client (mock) in a Store.
func NewStoreForTest(client rueidis.Client) *Store {
	return &Store{client: client}
}
