package cache

import (
	"context"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const membersSuffix = ":members"

// addIfCachedScript adds ARGV[1] only to a set that already exists, so a
// missing set is never recreated holding a single member.
const addIfCachedScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("SADD", KEYS[1], ARGV[1])
return 1
`

var addIfCachedLua = redis.NewScript(addIfCachedScript)

// MembershipCache mirrors course membership as one Redis set of member
// emails per course code. The store stays authoritative; the cache is only
// written after the store commits.
type MembershipCache struct {
	client *redis.Client
	prefix string
}

// NewMembershipCache builds a cache whose keys all start with prefix.
func NewMembershipCache(client *redis.Client, prefix string) *MembershipCache {
	return &MembershipCache{client: client, prefix: prefix}
}

func (c *MembershipCache) key(courseCode string) string {
	return c.prefix + "course:" + courseCode + membersSuffix
}

// Add records email as a member of courseCode.
func (c *MembershipCache) Add(ctx context.Context, courseCode, email string) error {
	return c.client.SAdd(ctx, c.key(courseCode), email).Err()
}

// AddIfCached records email as a member of courseCode when the course set
// is already cached. It reports false when there is no set to extend.
func (c *MembershipCache) AddIfCached(ctx context.Context, courseCode, email string) (bool, error) {
	n, err := addIfCachedLua.Run(ctx, c.client, []string{c.key(courseCode)}, email).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Remove evicts email from courseCode.
func (c *MembershipCache) Remove(ctx context.Context, courseCode, email string) error {
	return c.client.SRem(ctx, c.key(courseCode), email).Err()
}

// RemoveEverywhere evicts email from every cached course set.
func (c *MembershipCache) RemoveEverywhere(ctx context.Context, email string) error {
	codes, err := c.Codes(ctx)
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		return nil
	}
	_, err = c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, code := range codes {
			pipe.SRem(ctx, c.key(code), email)
		}
		return nil
	})
	return err
}

// Members returns the cached member emails of courseCode in sorted order.
// The second return value is false when no set exists for the course.
func (c *MembershipCache) Members(ctx context.Context, courseCode string) ([]string, bool, error) {
	key := c.key(courseCode)
	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, false, err
	}
	if exists == 0 {
		return nil, false, nil
	}
	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, false, err
	}
	sort.Strings(members)
	return members, true, nil
}

// IsMember reports whether email is cached as a member of courseCode.
func (c *MembershipCache) IsMember(ctx context.Context, courseCode, email string) (bool, error) {
	return c.client.SIsMember(ctx, c.key(courseCode), email).Result()
}

// Replace atomically swaps the cached set of courseCode for emails. An
// empty emails slice deletes the set.
func (c *MembershipCache) Replace(ctx context.Context, courseCode string, emails []string) error {
	key := c.key(courseCode)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(emails) > 0 {
			members := make([]any, len(emails))
			for i, e := range emails {
				members[i] = e
			}
			pipe.SAdd(ctx, key, members...)
		}
		return nil
	})
	return err
}

// Codes lists every course code that currently has a cached set.
func (c *MembershipCache) Codes(ctx context.Context) ([]string, error) {
	pattern := c.prefix + "course:*" + membersSuffix
	head := c.prefix + "course:"

	var codes []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		code := strings.TrimSuffix(strings.TrimPrefix(key, head), membersSuffix)
		codes = append(codes, code)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(codes)
	return codes, nil
}
