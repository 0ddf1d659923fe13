package config

import "time"

const (
	// ConfigFileName is the name of the bundle configuration file.
	ConfigFileName = "anchor.yaml"

	// Default environment value names. The binaries value is referenced from
	// the system path as %ANCHOR_BINS%.
	DefaultBinariesPathName = "ANCHOR_BINS"
	DefaultInstallPathName  = "ANCHOR_PATH"
	DefaultSystemPathName   = "Path"

	DefaultMaxLogsArchives = 5
	DefaultStartTimeout    = 30 * time.Second
	DefaultStopTimeout     = 20 * time.Second
)

// GetDefaultConfig returns the configuration used when anchor.yaml is absent,
// describing the stock bundle layout and product set.
func GetDefaultConfig() AnchorConfig {
	return AnchorConfig{
		Bundle: BundleConfig{
			MarkerFile:      "core/tmp/lastPath.dat",
			SettingsFile:    "core/settings.yaml",
			LogsDir:         "logs",
			TmpDir:          "tmp",
			SSLDir:          "ssl",
			ScriptsLogsDir:  "core/logs/scripts",
			MaxLogsArchives: DefaultMaxLogsArchives,
			TmpKeep:         []string{"cachegrind", "composer", "openssl", "mailpit", "npm-cache", "pip", "yarn"},
			KillStale:       true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "anchor-startup.log",
		},
		Registry: RegistryConfig{
			Scope:             RegistryScopeMachine,
			File:              "core/tmp/environment.yaml",
			InstallPathName:   DefaultInstallPathName,
			BinariesPathName:  DefaultBinariesPathName,
			SystemPathName:    DefaultSystemPathName,
			RefreshSystemPath: true,
		},
		Lifecycle: LifecycleConfig{
			Workers:      1,
			StartTimeout: DefaultStartTimeout,
			StopTimeout:  DefaultStopTimeout,
		},
		Scan: ScanConfig{
			Workers: 4,
			Rules: []ScanRuleConfig{
				{Path: "alias", Includes: []string{".conf"}},
				{Path: "vhosts", Includes: []string{".conf"}},
				{Path: "www", Includes: []string{".htaccess"}},
				{Path: "core/resources/homepage", Includes: []string{"alias.conf"}},
				{Path: "core/libs/openssl", Includes: []string{"openssl.cfg"}},
			},
		},
		SSL: SSLConfig{
			Name:         "localhost",
			Organization: "Anchor Local Development",
			ValidDays:    3650,
		},
		Products: defaultProducts(),
	}
}

func defaultProducts() []ProductConfig {
	return []ProductConfig{
		{
			Name: "apache", Kind: ProductKindService, Enabled: true, Dir: "bin/apache",
			Executable: "bin/httpd.exe",
			BinPaths:   []string{"bin"},
			ScanRules: []ScanRuleConfig{
				{Path: "", Includes: []string{".ini"}},
				{Path: "conf", Includes: []string{".conf"}, Recursive: true},
			},
			Service: &ServiceConfig{
				Name: "anchorapache", DisplayName: "Anchor Apache",
				Args: "-k runservice", Port: 80, SyntaxCheck: "-t",
			},
		},
		{
			Name: "php", Kind: ProductKindBinary, Enabled: true, Dir: "bin/php",
			BinPaths: []string{""},
			ScanRules: []ScanRuleConfig{
				{Path: "", Includes: []string{".ini"}},
				{Path: "pear", Includes: []string{".bat", "pear.ini"}},
			},
		},
		{
			Name: "mysql", Kind: ProductKindService, Enabled: true, Dir: "bin/mysql",
			Executable: "bin/mysqld.exe",
			BinPaths:   []string{"bin"},
			ScanRules:  []ScanRuleConfig{{Path: "", Includes: []string{"my.ini", ".bat"}}},
			Service: &ServiceConfig{
				Name: "anchormysql", DisplayName: "Anchor MySQL",
				Args:        `--defaults-file="{{ .DirWin }}\my.ini" {{ .Service }}`,
				Port:        3306,
				SyntaxCheck: "--help --verbose",
			},
		},
		{
			Name: "mariadb", Kind: ProductKindService, Enabled: true, Dir: "bin/mariadb",
			Executable: "bin/mysqld.exe",
			BinPaths:   []string{"bin"},
			ScanRules:  []ScanRuleConfig{{Path: "", Includes: []string{"my.ini", ".bat"}}},
			Service: &ServiceConfig{
				Name: "anchormariadb", DisplayName: "Anchor MariaDB",
				Args:        `--defaults-file="{{ .DirWin }}\my.ini" {{ .Service }}`,
				Port:        3307,
				SyntaxCheck: "--help --verbose",
			},
		},
		{
			Name: "postgresql", Kind: ProductKindService, Enabled: true, Dir: "bin/postgresql",
			Executable: "bin/pg_ctl.exe",
			BinPaths:   []string{"bin"},
			ScanRules: []ScanRuleConfig{
				{Path: "", Includes: []string{".conf", ".bat", ".ber"}},
				{Path: "data", Includes: []string{".conf"}},
			},
			Service: &ServiceConfig{
				Name: "anchorpostgresql", DisplayName: "Anchor PostgreSQL",
				Args: `runservice -N "{{ .Service }}" -D "{{ .DirWin }}\data" -w`,
				Port: 5432,
			},
		},
		{
			Name: "memcached", Kind: ProductKindService, Enabled: true, Dir: "bin/memcached",
			Executable: "memcached.exe",
			Service: &ServiceConfig{
				Name: "anchormemcached", DisplayName: "Anchor Memcached",
				Args: "-m 512 -p {{ .Port }} -U 0 -vv",
				Port: 11211,
			},
		},
		{
			Name: "mailpit", Kind: ProductKindService, Enabled: true, Dir: "bin/mailpit",
			Executable: "mailpit.exe",
			Service: &ServiceConfig{
				Name: "anchormailpit", DisplayName: "Anchor Mailpit",
				Args: `--listen 127.0.0.1:{{ .Port }} --smtp 127.0.0.1:1025 --db-file "{{ .DirWin }}\mailpit.db"`,
				Port: 8025,
			},
		},
		{
			Name: "xlight", Kind: ProductKindService, Enabled: true, Dir: "bin/xlight",
			Executable: "xlight.exe",
			ScanRules:  []ScanRuleConfig{{Path: "", Includes: []string{".ini", ".option"}}},
			Service: &ServiceConfig{
				Name: "anchorxlight", DisplayName: "Anchor Xlight FTP",
				Args: "-startall",
				Port: 21,
			},
		},
		{
			Name: "filezilla", Kind: ProductKindService, Enabled: false, Dir: "bin/filezilla",
			Executable: "filezilla-server.exe",
			ScanRules:  []ScanRuleConfig{{Path: "", Includes: []string{".xml"}}},
			Service: &ServiceConfig{
				Name: "anchorfilezilla", DisplayName: "Anchor FileZilla Server",
				Port: 21,
			},
		},
		{
			Name: "nodejs", Kind: ProductKindBinary, Enabled: true, Dir: "bin/nodejs",
			BinPaths:  []string{""},
			ScanRules: []ScanRuleConfig{{Path: "etc", Includes: []string{"npmrc"}}},
		},
		{
			Name: "git", Kind: ProductKindTool, Enabled: true, Dir: "tools/git",
			BinPaths: []string{"bin", "cmd"},
		},
		{
			Name: "composer", Kind: ProductKindTool, Enabled: true, Dir: "tools/composer",
			BinPaths: []string{""},
		},
		{
			Name: "python", Kind: ProductKindTool, Enabled: true, Dir: "tools/python",
			BinPaths:  []string{"bin", "bin/Scripts"},
			ScanRules: []ScanRuleConfig{{Path: "bin", Includes: []string{"!.exe", "!.dll"}, Recursive: false}},
		},
	}
}
