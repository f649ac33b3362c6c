package config

import "encoding/json"

// DefaultTemplateConfig 返回一个可直接编辑的配置模板：
// - 组件名采用仓库内置实现；
// - 各组件 Options 列出全部键，值为中性默认；
// - 语料目录指向 ./corpus，输出写入 ./out。
func DefaultTemplateConfig() Config {
	cfg := Defaults()
	cfg.Options.Reader = json.RawMessage(`{
  "corpus_dir": "corpus",
  "tok_prefix": "tu-toks",
  "orig_prefix": "tu-lines",
  "alignment_file_path": "corpus/tu-links",
  "langs": {"source": "en", "target": "th"},
  "buf_size": 65536,
  "max_line_bytes": 16777216,
  "mmap": false
}`)
	cfg.Options.Aligner = json.RawMessage(`{
  "strategies": ["identity", "identity"]
}`)
	cfg.Options.Exporter = json.RawMessage(`{
  "indent": "",
  "skip_links": false
}`)
	cfg.Options.Writer = json.RawMessage(`{
  "output_dir": "out",
  "atomic": true,
  "append": false,
  "flat": true,
  "ext": "",
  "perm_file": 0,
  "perm_dir": 0,
  "buf_size": 65536
}`)
	return cfg
}

// DefaultEnvTemplate 返回 .env 模板：列出全部可用键，值为空表示不覆盖。
func DefaultEnvTemplate() string {
	return `# amphialign 环境变量（空值不覆盖 config.json）
AMPHIALIGN_CONFIG_FILE=
AMPHIALIGN_CONFIG_JSON=
AMPHIALIGN_OFFSET=
AMPHIALIGN_LIMIT=
AMPHIALIGN_CONCURRENCY=
AMPHIALIGN_OUTPUT=
AMPHIALIGN_LOG_LEVEL=
AMPHIALIGN_COMPONENTS_READER=
AMPHIALIGN_COMPONENTS_ALIGNER=
AMPHIALIGN_COMPONENTS_EXPORTER=
AMPHIALIGN_COMPONENTS_WRITER=
AMPHIALIGN_OPTIONS_READER_JSON=
AMPHIALIGN_OPTIONS_ALIGNER_JSON=
AMPHIALIGN_OPTIONS_EXPORTER_JSON=
AMPHIALIGN_OPTIONS_WRITER_JSON=
`
}
