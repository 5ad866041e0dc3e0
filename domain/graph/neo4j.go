package graph

import (
	"github.com/sirupsen/logrus"

	"autograph-ds-builder/utils"
)

const entityCypher = `
	UNWIND $rows AS row
	MERGE (e:Entity {run: $run, name: row.name})
`

const relationCypher = `
	UNWIND $rows AS row
	MATCH (h:Entity {run: $run, name: row.head}), (t:Entity {run: $run, name: row.tail})
	MERGE (h)-[r:Relation {run: $run, name: row.rel, split: row.split}]->(t)
`

func batches(n, size int, fn func(begin, end int) error) error {
	for begin := 0; begin < n; begin += size {
		end := begin + size
		if end > n {
			end = n
		}
		if err := fn(begin, end); err != nil {
			return err
		}
	}
	return nil
}

/*
ExportToNeo4j 以 UNWIND + MERGE 的方式分批写入实体和关系，重复导入同一个 RunKey 不会产生重复节点或边。
*/
func ExportToNeo4j(setting *KGSetting, executor Executor, kg *KG) error {
	size := setting.batchSize()
	nodes, edges := 0, 0

	err := batches(len(kg.Entities), size, func(begin, end int) error {
		rows := make([]map[string]interface{}, 0, end-begin)
		for _, name := range kg.Entities[begin:end] {
			rows = append(rows, map[string]interface{}{"name": name})
		}
		summary, err := executor.Execute(entityCypher, map[string]interface{}{"run": kg.RunKey, "rows": rows})
		if err != nil {
			return utils.WrapErrorf(err, "merge entities [%d, %d) fail", begin, end)
		}
		nodes += summary.NodesCreated
		return nil
	})
	if err != nil {
		return err
	}

	err = batches(len(kg.Edges), size, func(begin, end int) error {
		rows := make([]map[string]interface{}, 0, end-begin)
		for _, edge := range kg.Edges[begin:end] {
			rows = append(rows, map[string]interface{}{
				"head":  edge.Head,
				"rel":   edge.Rel,
				"tail":  edge.Tail,
				"split": edge.Split,
			})
		}
		summary, err := executor.Execute(relationCypher, map[string]interface{}{"run": kg.RunKey, "rows": rows})
		if err != nil {
			return utils.WrapErrorf(err, "merge relations [%d, %d) fail", begin, end)
		}
		edges += summary.RelationshipsCreated
		return nil
	})
	if err != nil {
		return err
	}

	setting.Logger.WithFields(logrus.Fields{
		"run":           kg.RunKey,
		"nodes_created": nodes,
		"edges_created": edges,
	}).Info("kg exported to neo4j")
	return nil
}
