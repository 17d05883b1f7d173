package utils

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var (
	// domainRegex 域名基本格式: 首字符为字母数字,至少包含一个点,TLD至少2个字母
	domainRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-_.]*\.[a-zA-Z]{2,}$`)

	// invalidTLDs 保留顶级域,不可能是公网站点
	invalidTLDs = map[string]bool{
		"local":     true,
		"localhost": true,
		"test":      true,
		"invalid":   true,
		"example":   true,
	}
)

// SanitizeDomain 清洗输入为裸域名
// 去除协议前缀、路径、端口,统一转为小写
// 返回: 清洗后的域名和是否有效
func SanitizeDomain(raw string) (string, bool) {
	domain := strings.TrimSpace(strings.ToLower(raw))
	if domain == "" {
		return "", false
	}

	// 去除协议前缀
	if idx := strings.Index(domain, "://"); idx >= 0 {
		domain = domain[idx+3:]
	}

	// 去除路径和查询串
	if idx := strings.IndexAny(domain, "/?#"); idx >= 0 {
		domain = domain[:idx]
	}

	// 去除端口
	if idx := strings.LastIndex(domain, ":"); idx >= 0 {
		domain = domain[:idx]
	}

	domain = strings.Trim(domain, ".")
	if domain == "" {
		return "", false
	}

	return domain, ValidateDomain(domain)
}

// ValidateDomain 验证裸域名是否为合法的公网域名
func ValidateDomain(domain string) bool {
	if !domainRegex.MatchString(domain) {
		return false
	}

	parts := strings.Split(domain, ".")
	tld := parts[len(parts)-1]
	if invalidTLDs[tld] {
		return false
	}

	// 检查后缀是否在ICANN公共后缀列表中
	suffix, icann := publicsuffix.PublicSuffix(domain)
	if !icann {
		return false
	}
	// 域名不能仅仅是公共后缀本身
	if suffix == domain {
		return false
	}

	return true
}

// ReadDomains 从输入流读取域名列表
// 每行一个域名,自动清洗、去重,跳过空行和#注释行
// max > 0 时截断到最大数量
func ReadDomains(r io.Reader, max int) ([]string, error) {
	var domains []string
	seen := make(map[string]bool)
	skipped := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		domain, ok := SanitizeDomain(line)
		if !ok {
			skipped++
			Debugf("跳过无效域名: %s", line)
			continue
		}

		if seen[domain] {
			continue
		}
		seen[domain] = true
		domains = append(domains, domain)

		if max > 0 && len(domains) >= max {
			Warnf("域名数量达到上限%d, 忽略剩余输入", max)
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if skipped > 0 {
		Warnf("共跳过%d个无效域名", skipped)
	}

	return domains, nil
}
