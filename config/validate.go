package config

import (
	"errors"

	"autograph-ds-builder/utils"
)

var ErrInvalidConfig = errors.New("invalid config")

func checkPercent(name string, value int) error {
	if value < 0 || value > 100 {
		return utils.WrapErrorf(ErrInvalidConfig, "%s must be in [0, 100], got %d", name, value)
	}
	return nil
}

/*
Validate 检查会导致流水线崩溃或静默产出空结果的取值，所有错误均包装 ErrInvalidConfig。
*/
func (c *Config) Validate() error {
	if c.Link.MinSentLen < 0 || (c.Link.MaxSentLen > 0 && c.Link.MinSentLen > c.Link.MaxSentLen) {
		return utils.WrapErrorf(ErrInvalidConfig, "link.min_sent_len %d exceeds link.max_sent_len %d",
			c.Link.MinSentLen, c.Link.MaxSentLen)
	}
	if c.Prune.MinRelGroup < 0 || c.Prune.MinRelGroup > c.Prune.MaxRelGroup {
		return utils.WrapErrorf(ErrInvalidConfig, "prune.min_rel_group %d exceeds prune.max_rel_group %d",
			c.Prune.MinRelGroup, c.Prune.MaxRelGroup)
	}
	if c.Prune.NegativePercent < 0 {
		return utils.WrapErrorf(ErrInvalidConfig, "prune.negative_percent must not be negative, got %d",
			c.Prune.NegativePercent)
	}
	if c.Bag.MaxBagSize <= 0 {
		return utils.WrapErrorf(ErrInvalidConfig, "bag.max_bag_size must be positive, got %d", c.Bag.MaxBagSize)
	}
	if err := checkPercent("split.test_percent", c.Split.TestPercent); err != nil {
		return err
	}
	return checkPercent("split.dev_percent", c.Split.DevPercent)
}
