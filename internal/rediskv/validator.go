// Package rediskv implements the typed Redis helpers of spec.md §4.9:
// hash/sorted-set/list/geo wrappers, a command allow-list validator,
// and pipelined atomic writes. Grounded on the teacher's go-redis usage
// in ../../manager.go/state.go (HSet-on-client-field pattern) and the
// security posture of
// _examples/original_source/shared/src/security/redis_command_validator.rs,
// translated into Go validation rather than ported line-for-line.
package rediskv

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	maxKeyLength   = 250
	maxFieldLength = 100
	maxValueSize   = 1 << 20 // 1 MiB
)

var (
	ErrCommandNotAllowed = errors.New("rediskv: command not in allow-list")
	ErrKeyTooLong        = errors.New("rediskv: key exceeds max length")
	ErrFieldTooLong      = errors.New("rediskv: field exceeds max length")
	ErrValueTooLarge     = errors.New("rediskv: value exceeds max size")
	ErrDangerousPattern  = errors.New("rediskv: key/field matches a disallowed pattern")
)

// allowedCommands is the static allow-list of spec.md §4.9.
var allowedCommands = map[string]bool{
	"GET": true, "SET": true, "DEL": true, "EXISTS": true, "EXPIRE": true, "TTL": true,
	"HGET": true, "HSET": true, "HDEL": true, "HGETALL": true, "HEXISTS": true,
	"HKEYS": true, "HVALS": true, "HMGET": true, "HINCRBY": true,
	"ZADD": true, "ZREM": true, "ZRANGE": true, "ZREVRANGE": true, "ZRANK": true,
	"ZREVRANK": true, "ZSCORE": true, "ZCARD": true, "ZCOUNT": true, "ZINCRBY": true,
	"LPUSH": true, "RPUSH": true, "LPOP": true, "RPOP": true, "LLEN": true, "LRANGE": true,
	"INCR": true, "DECR": true, "INCRBY": true, "DECRBY": true, "PING": true,
	"GEOADD": true, "GEOPOS": true, "GEODIST": true, "GEOSEARCH": true,
}

// dangerousPatterns catches script/admin/injection/traversal attempts in
// a key or field, mirroring the Rust validator's regex set.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(eval|evalsha|script)`),
	regexp.MustCompile(`(?i)(config|debug|save|bgsave|flushall|flushdb|shutdown)`),
	regexp.MustCompile(`(?i)(keys|scan|info|client|monitor|slowlog)`),
	regexp.MustCompile(`(\.\./|\.\.\\|/etc/|/proc/|/sys/)`),
	regexp.MustCompile(`(;|\|\||&&|` + "`" + `|\$\()`),
	regexp.MustCompile("\x00"),
}

// Validator checks a command name against the allow-list (Command) and a
// key, field or value against the size limits and dangerous patterns
// (Key, Field, Value). Client calls Key before every keyed request, Field
// in HSet and SetWithTTLRenewal, and Value in HSet; it never calls Command.
type Validator struct{}

// NewValidator constructs a Validator. It holds no state: all rules are
// static, so one zero-cost instance is shared across the process.
func NewValidator() *Validator { return &Validator{} }

// Command checks that name is in the allow-list, case-insensitively.
func (v *Validator) Command(name string) error {
	if !allowedCommands[strings.ToUpper(name)] {
		return fmt.Errorf("%w: %s", ErrCommandNotAllowed, name)
	}
	return nil
}

// Key validates a key's length and pattern safety.
func (v *Validator) Key(key string) error {
	if len(key) > maxKeyLength {
		return ErrKeyTooLong
	}
	return v.checkDangerous(key)
}

// Field validates a hash field's length and pattern safety.
func (v *Validator) Field(field string) error {
	if len(field) > maxFieldLength {
		return ErrFieldTooLong
	}
	return v.checkDangerous(field)
}

// Value validates a value's size.
func (v *Validator) Value(value []byte) error {
	if len(value) > maxValueSize {
		return ErrValueTooLarge
	}
	return nil
}

func (v *Validator) checkDangerous(s string) error {
	for _, p := range dangerousPatterns {
		if p.MatchString(s) {
			return fmt.Errorf("%w: %q", ErrDangerousPattern, s)
		}
	}
	return nil
}
