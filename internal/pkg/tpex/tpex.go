// Copyright 2025 Tuff Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tpex 解析 .tpex 插件包。.tpex 是 tar 归档，
// 包内任意层级的 manifest.json 与 readme 会被提取为元数据。
package tpex

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const Extension = ".tpex"

// Metadata 从插件包提取的元数据，两个字段均可能为空
type Metadata struct {
	// Manifest manifest.json 的内容，不是合法 JSON 对象时为 nil
	Manifest map[string]any
	// Readme README 的 markdown 原文
	Readme *string
}

var ErrNotTar = errors.New("tpex: not a tar archive")

// ExtractMetadata 扫描 tar 归档，提取第一个 manifest.json 与第一个 readme。
// 文件名按小写后缀匹配，两者都找到后提前结束。
func ExtractMetadata(pkg []byte) (*Metadata, error) {
	meta := &Metadata{}
	var foundManifest, foundReadme bool

	tr := tar.NewReader(bytes.NewReader(pkg))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// 已经解析到部分条目时保留已提取的内容
			if foundManifest || foundReadme {
				return meta, nil
			}
			return meta, ErrNotTar
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		// 同名文件只取归档中的第一个，解析失败也不再回退到后续文件
		name := strings.ToLower(hdr.Name)
		switch {
		case !foundManifest && strings.HasSuffix(name, "manifest.json"):
			foundManifest = true
			data, err := io.ReadAll(tr)
			if err != nil {
				continue
			}
			meta.Manifest = parseManifest(data)
		case !foundReadme && (strings.HasSuffix(name, "readme.md") || strings.HasSuffix(name, "readme")):
			foundReadme = true
			data, err := io.ReadAll(tr)
			if err != nil {
				continue
			}
			readme := string(data)
			meta.Readme = &readme
		}

		if foundManifest && foundReadme {
			break
		}
	}

	return meta, nil
}

// parseManifest 仅接受 JSON 对象，其余情况返回 nil
func parseManifest(data []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
