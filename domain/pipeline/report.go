package pipeline

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"autograph-ds-builder/utils"
	emailutils "autograph-ds-builder/utils/email"
)

const buildEmailHTMLTemplate = `
<h1>远程监督语料构建完成</h1>
<p>运行标识：%s</p>
<p>保留关系数量：%d</p>
<p>正样本组合数量：%d，NA 组合数量：%d</p>

<h2>数据集规模</h2>
<p>%s</p>

<h2>被剪除的关系</h2>
<p>%s</p>

<p></p>
<p>输出目录：%s</p>
`

func renderBuildResultPage(runKey, outputDir string, result *BuildResult) string {
	sizes := make([]string, 0, 3)
	for _, s := range result.splits() {
		sizes = append(sizes, fmt.Sprintf("%s: %d 个三元组, %d 个证据包, %d 个句子",
			s.Name, len(s.Triples), len(s.Lines), s.Sentences()))
	}

	dropped := make([]string, 0, len(result.Prune.Dropped))
	for relation, groups := range result.Prune.Dropped {
		dropped = append(dropped, fmt.Sprintf("%s (%d)", html.EscapeString(relation), groups))
	}
	sort.Strings(dropped)
	droppedStr := "无"
	if len(dropped) != 0 {
		droppedStr = strings.Join(dropped, "<br/>")
	}

	return fmt.Sprintf(buildEmailHTMLTemplate,
		runKey,
		len(result.Prune.RelationGroups),
		result.Prune.Positives, result.Prune.Negatives,
		strings.Join(sizes, "<br/>"),
		droppedStr,
		html.EscapeString(outputDir))
}

func (p *Pipeline) notify(result *BuildResult) error {
	if p.services.NotifyTo == "" || !emailutils.Configured() {
		return nil
	}

	err := emailutils.SendHtml(p.services.NotifyTo, "【远程监督语料构建】构建完成",
		renderBuildResultPage(p.runKey, p.cfg.OutputDir, result))
	if err != nil {
		return utils.WrapErrorf(err, "notify [%s] fail", p.services.NotifyTo)
	}
	return nil
}
