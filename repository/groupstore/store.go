// Package groupstore keeps large sets of "src\ttgt" group keys, in memory or spilled to SQLite.
package groupstore

import (
	"os"
	"path/filepath"
	"sort"

	"autograph-ds-builder/utils"
)

type Set interface {
	Add(key string) error
	Has(key string) (bool, error)
	Len() (int, error)

	// Each visits every key in ascending order. fn must not touch the same set.
	Each(fn func(key string) error) error
	Close() error
}

type memorySet struct {
	keys map[string]struct{}
}

func NewMemorySet() Set {
	return &memorySet{keys: make(map[string]struct{})}
}

func (s *memorySet) Add(key string) error {
	s.keys[key] = struct{}{}
	return nil
}

func (s *memorySet) Has(key string) (bool, error) {
	_, ok := s.keys[key]
	return ok, nil
}

func (s *memorySet) Len() (int, error) {
	return len(s.keys), nil
}

func (s *memorySet) Each(fn func(key string) error) error {
	keys := make([]string, 0, len(s.keys))
	for key := range s.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := fn(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *memorySet) Close() error {
	s.keys = nil
	return nil
}

// Factory opens a fresh named set.
type Factory func(name string) (Set, error)

/*
NewFactory 返回创建 Set 的工厂：spill 为 false 时使用内存；否则在 dir 下为每个名字建立一个 SQLite 文件。
*/
func NewFactory(spill bool, dir string) Factory {
	if !spill {
		return func(string) (Set, error) {
			return NewMemorySet(), nil
		}
	}
	return func(name string) (Set, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, utils.WrapErrorf(err, "create spill dir [%s] fail", dir)
		}
		return NewSQLiteSet(filepath.Join(dir, name+".sqlite"))
	}
}

// Collect drains a set into a sorted slice.
func Collect(s Set) ([]string, error) {
	var ret []string
	err := s.Each(func(key string) error {
		ret = append(ret, key)
		return nil
	})
	return ret, err
}
