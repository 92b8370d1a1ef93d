package icon

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// findAttr はHTML文書を走査し、matchを満たす最初の要素のattr属性の値を返す。
func findAttr(doc []byte, match func(*html.Node) bool, attr string) (string, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("HTMLの解析に失敗: %w", err)
	}

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && match(n) {
			found = n
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	if found == nil {
		return "", ErrNoIcon
	}
	v, ok := attrValue(found, attr)
	if !ok || strings.TrimSpace(v) == "" {
		return "", ErrNoIcon
	}
	return strings.TrimSpace(v), nil
}

// attrValue は要素の属性値を返す。
func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// hasClass は要素のclass属性にclassが含まれるかどうかを返す。
func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, ok := attrValue(n, "class")
		return ok && slices.Contains(strings.Fields(v), class)
	}
}

// hasAttr は要素の属性keyがvalueと一致するかどうかを返す。
func hasAttr(key, value string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, ok := attrValue(n, key)
		return ok && v == value
	}
}
