package handler

import (
	"autograph-ds-builder/domain/linking"
	"autograph-ds-builder/repository/metadata"
)

/*
HandlerSetting 处理请求所需的依赖，为 nil 的依赖对应的接口返回 503。

	Linker 已加载的实体索引，供 /link 使用；
	Metadata 运行记录，供 /runs 使用；
*/
type HandlerSetting struct {
	Linker   linking.Linker
	Metadata *metadata.Store
}

var globalSetting HandlerSetting

func Init(setting *HandlerSetting) {
	globalSetting = *setting
}
