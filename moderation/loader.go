package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed censored/*.txt
var dictionaries embed.FS

// Blocklist is the parsed result of the embedded dictionaries, with the
// language codes kept for startup logging.
type Blocklist struct {
	Words     []string
	Languages []string
}

// LoadBlocklist reads every embedded .txt dictionary. Each file is one
// language (en.txt, fr.txt, ...), one word per line, '#' starting a comment.
func LoadBlocklist() (Blocklist, error) {
	entries, err := fs.ReadDir(dictionaries, "censored")
	if err != nil {
		return Blocklist{}, fmt.Errorf("reading embedded dictionaries: %w", err)
	}

	var list Blocklist
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		data, err := dictionaries.ReadFile(path.Join("censored", entry.Name()))
		if err != nil {
			return Blocklist{}, err
		}
		list.Languages = append(list.Languages, strings.TrimSuffix(entry.Name(), ".txt"))

		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" || strings.HasPrefix(word, "#") {
				continue
			}
			word = strings.ToLower(word)
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			list.Words = append(list.Words, word)
		}
		if err := scanner.Err(); err != nil {
			return Blocklist{}, err
		}
	}

	if len(list.Words) == 0 {
		return Blocklist{}, fmt.Errorf("no blocklist words found")
	}
	return list, nil
}
