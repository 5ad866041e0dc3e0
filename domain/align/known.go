package align

import (
	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/vocab"
	"autograph-ds-builder/repository/groupstore"
	"autograph-ds-builder/utils"
)

/*
KnownGroups 把知识库中每个有关系的 CUI 对展开为所有表面形式组合 "src\ttgt"，写入 known。
*/
func KnownGroups(graph *vocab.Graph, known groupstore.Set) error {
	seen := make(map[vocab.Pair]struct{})
	for _, label := range graph.Relations() {
		for _, pair := range graph.Pairs(label) {
			if _, ok := seen[pair]; ok {
				continue
			}
			seen[pair] = struct{}{}

			tgtTexts := graph.Texts(pair.Tgt)
			for _, src := range graph.Texts(pair.Src) {
				for _, tgt := range tgtTexts {
					if err := known.Add(record.JoinGroup(src, tgt)); err != nil {
						return utils.WrapErrorf(err, "add known group of [%s, %s] fail", pair.Src, pair.Tgt)
					}
				}
			}
		}
	}
	return nil
}
