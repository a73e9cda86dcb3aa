package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"main/internal/model/enum"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/logs"
)

const (
	DefaultMappingFile  = "ticker_mapping.txt"
	DefaultAccountsFile = "accounts.txt"

	EnvTickerMapping = "TICKER_MAPPING"
)

// defaultMappings are the built-in entries used when neither the file
// nor the environment provides one for a ticker.
var defaultMappings = map[string]Mapping{
	"GC": {Target: "MGC", Quantity: 1},
}

// Paths points at the two config files the loader reads.
type Paths struct {
	MappingFile  string
	AccountsFile string
}

func DefaultPaths() Paths {
	return Paths{
		MappingFile:  DefaultMappingFile,
		AccountsFile: DefaultAccountsFile,
	}
}

// Load reads both tables from disk and the environment. It never
// fails: unreadable layers are skipped with a warning and the rest
// still apply. Precedence is file > environment > built-in defaults;
// a lower layer only fills tickers the higher layers left unset.
func Load(paths Paths) (map[string]Mapping, []Account) {
	mappings := parseMappingFile(paths.MappingFile)
	for key, m := range parseMappingEnv(os.Getenv(EnvTickerMapping)) {
		if _, ok := mappings[key]; !ok {
			mappings[key] = m
		}
	}
	for key, m := range defaultMappings {
		if _, ok := mappings[key]; !ok {
			mappings[key] = m
		}
	}
	return mappings, parseAccountsFile(paths.AccountsFile)
}

func parseMappingFile(path string) map[string]Mapping {
	out := make(map[string]Mapping)
	if path == "" {
		return out
	}
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logs.Warnf("open mapping file %s, err: %+v", path, err)
		}
		return out
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		key, m, ok := ParseMappingLine(scanner.Text(), lineNum)
		if !ok {
			continue
		}
		out[key] = m
	}
	if err := scanner.Err(); err != nil {
		logs.Warnf("read mapping file %s, err: %+v", path, err)
	}
	return out
}

// ParseMappingLine parses one "SRC=DST" or "SRC=DST,QTY" line.
// Comment and blank lines report not-ok silently; malformed lines
// report not-ok with a warning; a malformed quantity falls back to 1.
func ParseMappingLine(line string, lineNum int) (string, Mapping, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", Mapping{}, false
	}
	src, rest, found := strings.Cut(line, "=")
	if !found {
		logs.Warnf("mapping line %d skipped, missing '=': %s", lineNum, line)
		return "", Mapping{}, false
	}
	src = strings.ToUpper(strings.TrimSpace(src))
	target, qtyStr, hasQty := strings.Cut(rest, ",")
	target = strings.TrimSpace(target)
	if src == "" || target == "" {
		logs.Warnf("mapping line %d skipped, empty ticker: %s", lineNum, line)
		return "", Mapping{}, false
	}
	qty := 1
	if hasQty {
		parsed, err := strconv.Atoi(strings.TrimSpace(qtyStr))
		if err != nil || parsed < 1 {
			logs.Warnf("mapping line %d has invalid quantity %q, using 1", lineNum, qtyStr)
		} else {
			qty = parsed
		}
	}
	return src, Mapping{Target: target, Quantity: qty}, true
}

func parseMappingEnv(raw string) map[string]Mapping {
	out := make(map[string]Mapping)
	if raw == "" {
		return out
	}
	var entries map[string]string
	if err := sonic.ConfigFastest.Unmarshal([]byte(raw), &entries); err != nil {
		logs.Warnf("parse %s env, err: %+v", EnvTickerMapping, err)
		return out
	}
	for src, target := range entries {
		src = strings.ToUpper(strings.TrimSpace(src))
		target = strings.TrimSpace(target)
		if src == "" || target == "" {
			continue
		}
		out[src] = Mapping{Target: target, Quantity: 1}
	}
	return out
}

func parseAccountsFile(path string) []Account {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logs.Warnf("open accounts file %s, err: %+v", path, err)
		}
		return nil
	}
	defer f.Close()

	var accounts []Account
	index := make(map[string]int)
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		account, ok := ParseAccountLine(scanner.Text(), lineNum)
		if !ok {
			continue
		}
		if at, seen := index[account.ID]; seen {
			accounts[at] = account
			continue
		}
		index[account.ID] = len(accounts)
		accounts = append(accounts, account)
	}
	if err := scanner.Err(); err != nil {
		logs.Warnf("read accounts file %s, err: %+v", path, err)
	}
	return accounts
}

// ParseAccountLine parses one "ID=TYPE" or "ID=TYPE,enabled" line.
// The enabled flag defaults to true. Duplicate account ids are
// resolved by the caller, last write wins.
func ParseAccountLine(line string, lineNum int) (Account, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Account{}, false
	}
	id, rest, found := strings.Cut(line, "=")
	if !found {
		logs.Warnf("account line %d skipped, missing '=': %s", lineNum, line)
		return Account{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		logs.Warnf("account line %d skipped, empty account id: %s", lineNum, line)
		return Account{}, false
	}
	typeStr, flagStr, hasFlag := strings.Cut(rest, ",")
	orderType, ok := enum.ParseOrderType(typeStr)
	if !ok {
		logs.Warnf("account line %d skipped, unknown order type %q", lineNum, typeStr)
		return Account{}, false
	}
	enabled := true
	if hasFlag {
		switch strings.ToLower(strings.TrimSpace(flagStr)) {
		case "enabled", "true", "1":
			enabled = true
		case "disabled", "false", "0":
			enabled = false
		default:
			logs.Warnf("account line %d has unknown flag %q, keeping enabled", lineNum, flagStr)
		}
	}
	return Account{ID: id, OrderType: orderType, Enabled: enabled}, true
}
