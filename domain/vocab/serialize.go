package vocab

import (
	"encoding/json"
	"errors"
	"io"

	"autograph-ds-builder/utils"
)

const FormatVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported vocabulary version")

type entityDocument struct {
	CUI     string   `json:"cui"`
	Aliases []string `json:"aliases"`
}

type relationDocument struct {
	Label string      `json:"label"`
	Pairs [][2]string `json:"pairs"`
}

type graphDocument struct {
	Version   int                `json:"version"`
	Entities  []entityDocument   `json:"entities"`
	Relations []relationDocument `json:"relations"`
}

/*
Save 以带版本号的 JSON 文档写出 Graph，实体与关系均按字典序排列，相同的 Graph 总是得到相同的输出。
*/
func (g *Graph) Save(w io.Writer) error {
	doc := graphDocument{
		Version:   FormatVersion,
		Entities:  make([]entityDocument, 0, len(g.cuiToTexts)),
		Relations: make([]relationDocument, 0, len(g.relations)),
	}

	for _, cui := range g.CUIs() {
		doc.Entities = append(doc.Entities, entityDocument{
			CUI:     cui,
			Aliases: g.Texts(cui),
		})
	}
	for _, label := range g.Relations() {
		pairs := g.Pairs(label)
		rel := relationDocument{
			Label: label,
			Pairs: make([][2]string, 0, len(pairs)),
		}
		for _, p := range pairs {
			rel.Pairs = append(rel.Pairs, [2]string{p.Src, p.Tgt})
		}
		doc.Relations = append(doc.Relations, rel)
	}

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(&doc); err != nil {
		return utils.WrapError(err, "encode vocabulary fail")
	}
	return nil
}

func Load(r io.Reader) (*Graph, error) {
	var doc graphDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, utils.WrapError(err, "decode vocabulary fail")
	}
	if doc.Version != FormatVersion {
		return nil, utils.WrapErrorf(ErrUnsupportedVersion, "load vocabulary version [%d] fail", doc.Version)
	}

	builder := NewBuilder()
	for _, entity := range doc.Entities {
		for _, alias := range entity.Aliases {
			builder.addAlias(entity.CUI, alias)
		}
	}
	for _, rel := range doc.Relations {
		for _, p := range rel.Pairs {
			builder.AddRelation(rel.Label, p[0], p[1])
		}
	}
	return builder.Build(), nil
}
