package record

import "strings"

const groupSeparator = "\t"

/*
JoinGroup 将 (src, tgt) 拼接为 group key "src\ttgt"。
*/
func JoinGroup(src, tgt string) string {
	return src + groupSeparator + tgt
}

/*
SplitGroup 是 JoinGroup 的逆操作；key 中不含恰好一个 tab 时 ok 为 false。
*/
func SplitGroup(key string) (src, tgt string, ok bool) {
	index := strings.Index(key, groupSeparator)
	if index < 0 {
		return "", "", false
	}

	src, tgt = key[:index], key[index+len(groupSeparator):]
	if strings.Contains(tgt, groupSeparator) {
		return "", "", false
	}
	return src, tgt, true
}
