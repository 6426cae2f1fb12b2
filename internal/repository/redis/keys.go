package redis

import (
	"hash"
	"strconv"
	"strings"
	"sync"

	"github.com/spaolacci/murmur3"
)

const keyPrefix = "honeydash:"

// Keyer turns a query name and its arguments into a short, stable cache key.
// Hashers are pooled since every dashboard request builds several keys.
type Keyer struct {
	namespace  string
	hasherPool sync.Pool
}

// NewKeyer scopes keys to namespace, typically the store dialect, so two
// dashboards sharing a Redis never read each other's rows.
func NewKeyer(namespace string) *Keyer {
	return &Keyer{
		namespace: namespace,
		hasherPool: sync.Pool{
			New: func() interface{} {
				return murmur3.New64()
			},
		},
	}
}

// Key returns "honeydash:<namespace>:<query>:<hash>". Arguments are length
// prefixed before hashing so ("ab","c") and ("a","bc") differ.
func (k *Keyer) Key(query string, args ...string) string {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(strconv.Itoa(len(a)))
		b.WriteByte(':')
		b.WriteString(a)
	}

	var sb strings.Builder
	sb.WriteString(keyPrefix)
	if k.namespace != "" {
		sb.WriteString(k.namespace)
		sb.WriteByte(':')
	}
	sb.WriteString(query)
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatUint(k.hash(b.String()), 16))
	return sb.String()
}

func (k *Keyer) hash(s string) uint64 {
	hasher := k.hasherPool.Get().(hash.Hash64)
	defer k.hasherPool.Put(hasher)

	hasher.Reset()
	hasher.Write([]byte(s))
	return hasher.Sum64()
}
