package pipeline

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"autograph-ds-builder/utils"
)

/*
writeFile 先写入同目录下的临时文件，成功后再改名为 path，失败时不留下不完整的输出。
*/
func writeFile(path string, fn func(w io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return utils.WrapErrorf(err, "create dir of [%s] fail", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return utils.WrapErrorf(err, "create temp file for [%s] fail", path)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err = fn(buf); err != nil {
		return utils.WrapErrorf(err, "write [%s] fail", path)
	}
	if err = buf.Flush(); err != nil {
		return utils.WrapErrorf(err, "flush [%s] fail", path)
	}
	if err = tmp.Close(); err != nil {
		return utils.WrapErrorf(err, "close [%s] fail", path)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return utils.WrapErrorf(err, "rename [%s] fail", path)
	}
	return nil
}

func readFile(path string, fn func(r io.Reader) error) error {
	file, err := os.Open(path)
	if err != nil {
		return utils.WrapErrorf(err, "open [%s] fail", path)
	}
	defer file.Close()

	return fn(bufio.NewReaderSize(file, 1<<20))
}
