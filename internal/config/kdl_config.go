package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// applyKDL overlays fields present in a KDL document onto cfg. Example:
//
//	sort {
//	    max_run_bytes "64MB"
//	    run_dir "/var/lib/pkgidx/tmp-runs"
//	}
//	open {
//	    consistent_open_timeout_ms 5000
//	}
//	fastpath {
//	    max_added_number_packages 40
//	}
func applyKDL(cfg *Config, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse engine config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "sort":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_run_bytes":
					if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							cfg.MaxRunBytes = sz
						}
					} else if v, ok := firstIntArg(cn); ok {
						cfg.MaxRunBytes = int64(v)
					}
				case "run_dir":
					if s, ok := firstStringArg(cn); ok {
						cfg.RunDir = s
					}
				}
			}
		case "open":
			for _, cn := range n.Children {
				if nodeName(cn) == "consistent_open_timeout_ms" {
					if v, ok := firstIntArg(cn); ok {
						cfg.ConsistentOpenTimeout = time.Duration(v) * time.Millisecond
					}
				}
			}
		case "fastpath":
			for _, cn := range n.Children {
				if nodeName(cn) == "max_added_number_packages" {
					if v, ok := firstIntArg(cn); ok {
						cfg.MaxAddedNumberPackages = v
					}
				}
			}
		}
	}
	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

// parseSize handles size strings like "128MB", "64KB", "1GB".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}
