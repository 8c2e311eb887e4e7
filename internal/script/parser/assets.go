package parser

import (
	"strings"
)

// kindDirs places each asset kind under its directory inside AssetBase.
var kindDirs = map[AssetKind]string{
	AssetBackground: "background",
	AssetFigure:     "figure",
	AssetAudio:      "vocal",
	AssetVideo:      "video",
	AssetScene:      "scene",
}

// bgmDir separates looping music from one-shot vocal clips.
const bgmDir = "bgm"

// rewriteContent turns a bare filename in content into a resolvable asset URL
// for commands whose content names an asset. Dialogue and control commands
// pass through untouched.
func (p *Parser) rewriteContent(cmd CommandType, content string) string {
	kind, ok := contentAssetKind(cmd)
	if !ok {
		return content
	}
	if content == "" || content == "none" {
		return content
	}
	dir := kindDirs[kind]
	if cmd == CommandPlayBgm {
		dir = bgmDir
	}
	return p.assetURL(dir, content)
}

// assetURL prefixes a bare filename with base and kind directory. Anything
// already path-like or absolute is left alone.
func (p *Parser) assetURL(dir, name string) string {
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") ||
		strings.HasPrefix(name, "/") || strings.Contains(name, "/") {
		return name
	}
	base := strings.TrimSuffix(p.cfg.AssetBase, "/")
	if base == "" {
		return dir + "/" + name
	}
	return base + "/" + dir + "/" + name
}

// scanAssets walks content and every arg value, emitting one entry per
// distinct reference for commands known to touch assets.
func (p *Parser) scanAssets(cmd CommandType, content string, args []Flag) []Asset {
	var assets []Asset
	seen := make(map[string]bool)

	add := func(url string, kind AssetKind) {
		if url == "" || url == "none" || seen[url] {
			return
		}
		seen[url] = true
		assets = append(assets, Asset{URL: url, Kind: kind.String()})
	}

	if kind, ok := contentAssetKind(cmd); ok && kind != AssetScene {
		add(content, kind)
	}

	for _, a := range args {
		v, ok := a.Value.(string)
		if !ok {
			continue
		}
		switch a.Key {
		case "vocal":
			add(p.assetURL(kindDirs[AssetAudio], v), AssetAudio)
		case "bgm":
			add(p.assetURL(bgmDir, v), AssetAudio)
		case "figure":
			add(p.assetURL(kindDirs[AssetFigure], v), AssetFigure)
		}
	}
	return assets
}

// scanSubScenes collects embedded sub-script references: any token ending in
// the scene extension inside the content of a scene-embedding command.
// A prefetcher consumes these, not the parser.
func (p *Parser) scanSubScenes(cmd CommandType, content string, args []Flag) []string {
	if !embedsSubScene(cmd) {
		return nil
	}

	var scenes []string
	seen := make(map[string]bool)

	collect := func(text string) {
		for _, token := range strings.FieldsFunc(text, func(r rune) bool {
			return r == '|' || r == ':' || r == ' '
		}) {
			token = strings.TrimSpace(token)
			if strings.HasSuffix(token, p.cfg.SceneExtension) && !seen[token] {
				seen[token] = true
				scenes = append(scenes, token)
			}
		}
	}

	collect(content)
	for _, a := range args {
		if v, ok := a.Value.(string); ok {
			collect(v)
		}
	}
	return scenes
}
