// Utilities for parsing cURL commands.
//
// A browser session on music.apple.com carries both the developer token
// (authorization header) and the Music-User-Token (media-user-token header).
// "Copy as cURL" on any API request from DevTools captures both, so a pasted
// command is the quickest way to configure credentials without a paid
// developer account.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts headers.
func ParseCurlCommand(data []byte) (*CurlHeaders, error) {
	curlCmd := string(data)
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var cookie string

	headerRegex := regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	matches := headerRegex.FindAllStringSubmatch(curlCmd, -1)

	for _, match := range matches {
		headerLine := match[1]
		if headerLine == "" {
			headerLine = match[2]
		}

		parts := strings.SplitN(headerLine, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if strings.EqualFold(key, "cookie") {
			cookie = value
		} else {
			headers[strings.ToLower(key)] = value
		}
	}

	cookieRegex := regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
	if cookieMatches := cookieRegex.FindStringSubmatch(curlCmd); len(cookieMatches) > 1 {
		if cookieMatches[1] != "" {
			cookie = cookieMatches[1]
		} else {
			cookie = cookieMatches[2]
		}
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("no headers found in curl command")
	}

	return &CurlHeaders{
		Headers: headers,
		Cookie:  cookie,
	}, nil
}

// DeveloperToken returns the bearer token from the authorization header, if present.
func (c *CurlHeaders) DeveloperToken() string {
	auth, ok := c.Headers["authorization"]
	if !ok {
		return ""
	}

	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer"))
	return token
}

// UserToken returns the media-user-token header value, falling back to the
// media-user-token cookie if the header is absent.
func (c *CurlHeaders) UserToken() string {
	if token, ok := c.Headers["media-user-token"]; ok {
		return token
	}
	if token, ok := c.Headers["music-user-token"]; ok {
		return token
	}

	for _, pair := range strings.Split(c.Cookie, ";") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "media-user-token") {
			return parts[1]
		}
	}

	return ""
}
