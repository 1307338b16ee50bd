package scaffold

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		appName string
		wantErr bool
	}{
		{"simple", "dance", false},
		{"snake case", "my_dance_app", false},
		{"with digits", "app2", false},
		{"empty", "", true},
		{"leading digit", "2app", true},
		{"uppercase", "MyApp", true},
		{"dashes", "my-app", true},
		{"spaces", "my app", true},
		{"leading underscore", "_app", true},
		{"reserved", "reachy_mini", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.appName)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.appName, err, tt.wantErr)
			}
		})
	}
}

func TestToPascalCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dance", "Dance"},
		{"my_dance_app", "MyDanceApp"},
		{"app2", "App2"},
		{"a_b_c", "ABC"},
	}

	for _, tt := range tests {
		if got := ToPascalCase(tt.in); got != tt.want {
			t.Errorf("ToPascalCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreateSimple(t *testing.T) {
	dir := t.TempDir()

	result, err := Create(Options{Name: "my_dance_app", Template: TemplateSimple, Dir: dir})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if result.Path != filepath.Join(dir, "my_dance_app") {
		t.Errorf("Path = %q", result.Path)
	}
	if result.ClassName != "MyDanceApp" {
		t.Errorf("ClassName = %q, want MyDanceApp", result.ClassName)
	}

	// Package dir renamed from the template placeholder, src layout.
	pkgDir := filepath.Join(result.Path, "src", "my_dance_app")
	if _, err := os.Stat(filepath.Join(pkgDir, "main.py")); err != nil {
		t.Fatalf("package main.py missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(pkgDir, "static", "index.html")); err != nil {
		t.Fatalf("static/index.html missing: %v", err)
	}

	mainPy, err := os.ReadFile(filepath.Join(pkgDir, "main.py"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(mainPy), "example_app") || strings.Contains(string(mainPy), "ExampleApp") {
		t.Error("main.py still contains template placeholder names")
	}
	if !strings.Contains(string(mainPy), "class MyDanceApp(ReachyMiniApp)") {
		t.Error("main.py missing renamed app class")
	}

	pyproject, err := os.ReadFile(filepath.Join(result.Path, "pyproject.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(pyproject), `name = "my-dance-app"`) {
		t.Errorf("pyproject.toml missing dashed dist name:\n%s", pyproject)
	}
	if !strings.Contains(string(pyproject), "my_dance_app.main:MyDanceApp") {
		t.Errorf("pyproject.toml missing renamed entry point:\n%s", pyproject)
	}
}

func TestCreateRefusesExistingDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "taken"), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := Create(Options{Name: "taken", Dir: dir}); err == nil {
		t.Error("Create() expected error for existing directory")
	}
}

func TestCreateRejectsBadInputs(t *testing.T) {
	dir := t.TempDir()

	if _, err := Create(Options{Name: "Bad-Name", Dir: dir}); err == nil {
		t.Error("Create() expected error for invalid name")
	}
	if _, err := Create(Options{Name: "fine", Template: "nope", Dir: dir}); err == nil {
		t.Error("Create() expected error for unknown template")
	}
}

func TestRenameProjectWordBoundaries(t *testing.T) {
	dir := t.TempDir()
	content := "import example_app\nfrom example_app_extras import x\nclass ExampleApp: pass\n"
	if err := os.WriteFile(filepath.Join(dir, "mod.py"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RenameProject(dir, "example_app", "dance"); err != nil {
		t.Fatalf("RenameProject() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "mod.py"))
	if err != nil {
		t.Fatal(err)
	}
	want := "import dance\nfrom example_app_extras import x\nclass Dance: pass\n"
	if string(got) != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestCheckOnScaffoldedApp(t *testing.T) {
	dir := t.TempDir()
	result, err := Create(Options{Name: "my_dance_app", Dir: dir})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	report, err := Check(result.Path)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !report.Passed() {
		t.Errorf("Check() failed on freshly scaffolded app: %+v", report.Results)
	}
	if report.AppName != "my_dance_app" {
		t.Errorf("AppName = %q, want my_dance_app", report.AppName)
	}
}

func TestCheckFailures(t *testing.T) {
	t.Run("missing pyproject", func(t *testing.T) {
		report, err := Check(t.TempDir())
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if report.Passed() {
			t.Error("Check() passed with no pyproject.toml")
		}
	})

	t.Run("missing entry point", func(t *testing.T) {
		dir := t.TempDir()
		pyproject := `[project]
name = "broken-app"
version = "0.1.0"
dependencies = ["reachy-mini"]
`
		if err := os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(pyproject), 0o644); err != nil {
			t.Fatal(err)
		}

		report, err := Check(dir)
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if report.Passed() {
			t.Error("Check() passed without an entry point")
		}

		var found bool
		for _, res := range report.Results {
			if res.Name == "entry-point" && res.Status == CheckFail {
				found = true
			}
		}
		if !found {
			t.Errorf("no entry-point failure in %+v", report.Results)
		}
	})

	t.Run("missing sdk dependency", func(t *testing.T) {
		dir := t.TempDir()
		pyproject := `[project]
name = "broken-app"
version = "0.1.0"
dependencies = ["numpy"]

[project.entry-points."reachy_mini_apps"]
broken_app = "broken_app.main:BrokenApp"
`
		if err := os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(pyproject), 0o644); err != nil {
			t.Fatal(err)
		}

		report, err := Check(dir)
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}

		var found bool
		for _, res := range report.Results {
			if res.Name == "sdk" && res.Status == CheckFail {
				found = true
			}
		}
		if !found {
			t.Errorf("no sdk failure in %+v", report.Results)
		}
	})
}

// withStubGit replaces git with a recorder that always succeeds.
func withStubGit(t *testing.T) *[][]string {
	t.Helper()
	var calls [][]string
	orig := execCommand
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, append([]string{name}, args...))
		return exec.CommandContext(ctx, "true")
	}
	t.Cleanup(func() { execCommand = orig })
	return &calls
}

func TestCreateSimpleInitsGit(t *testing.T) {
	calls := withStubGit(t)
	dir := t.TempDir()

	if _, err := Create(Options{Name: "my_dance_app", Template: TemplateSimple, Dir: dir}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var inited bool
	for _, call := range *calls {
		if len(call) >= 2 && call[0] == "git" && call[1] == "init" {
			inited = true
		}
	}
	if !inited {
		t.Errorf("git calls = %v, want an init so publishing can push", *calls)
	}
}

func TestCheckAcceptsSrcLayout(t *testing.T) {
	dir := t.TempDir()
	pyproject := `[project]
name = "my-app"
version = "0.1.0"
dependencies = ["reachy-mini"]

[project.entry-points."reachy_mini_apps"]
my_app = "my_app.main:MyApp"
`
	if err := os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(pyproject), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# my_app\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pkgDir := filepath.Join(dir, "src", "my_app")
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"__init__.py", "main.py"} {
		if err := os.WriteFile(filepath.Join(pkgDir, f), []byte("pass\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	report, err := Check(dir)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !report.Passed() {
		t.Errorf("Check() failed on src layout workspace: %+v", report.Results)
	}

	var pkgPass bool
	for _, res := range report.Results {
		if res.Name == "package" && res.Status == CheckPass {
			pkgPass = true
		}
	}
	if !pkgPass {
		t.Errorf("no package pass in %+v", report.Results)
	}
}

func TestCheckAcceptsFlatLayout(t *testing.T) {
	dir := t.TempDir()
	pyproject := `[project]
name = "my-app"
version = "0.1.0"
dependencies = ["reachy-mini"]

[project.entry-points."reachy_mini_apps"]
my_app = "my_app.main:MyApp"
`
	if err := os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(pyproject), 0o644); err != nil {
		t.Fatal(err)
	}
	pkgDir := filepath.Join(dir, "my_app")
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pkgDir, "__init__.py"), []byte("pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := Check(dir)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !report.Passed() {
		t.Errorf("Check() failed on flat layout workspace: %+v", report.Results)
	}
}

func TestLockProfile(t *testing.T) {
	dir := t.TempDir()
	pkgDir := filepath.Join(dir, "src", "my_app")
	if err := os.MkdirAll(filepath.Join(pkgDir, "profiles", "default"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pkgDir, "profiles", "default", "instructions.txt"), []byte("upstream\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	configPy := "MODEL = \"gpt\"\nLOCKED_PROFILE: str | None = None\n"
	if err := os.WriteFile(filepath.Join(pkgDir, "config.py"), []byte(configPy), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := lockProfile(dir, "my_app"); err != nil {
		t.Fatalf("lockProfile() error = %v", err)
	}

	lockedDir := filepath.Join(pkgDir, "profiles", "_my_app_locked_profile")
	for _, f := range []string{"instructions.txt", "tools.txt"} {
		if _, err := os.Stat(filepath.Join(lockedDir, f)); err != nil {
			t.Errorf("locked profile missing %s: %v", f, err)
		}
	}

	if _, err := os.Stat(filepath.Join(pkgDir, "profiles", "default")); !os.IsNotExist(err) {
		t.Error("upstream profile was not removed")
	}

	got, err := os.ReadFile(filepath.Join(pkgDir, "config.py"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), `LOCKED_PROFILE: str | None = "_my_app_locked_profile"`) {
		t.Errorf("config.py not pinned:\n%s", got)
	}
}

func TestForkUsesDevelopBranch(t *testing.T) {
	var calls [][]string
	orig := execCommand
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, append([]string{name}, args...))
		if len(args) > 0 && args[0] == "clone" {
			// Fake the upstream layout at the clone target.
			target := args[len(args)-1]
			pkgDir := filepath.Join(target, "src", conversationPackage)
			os.MkdirAll(filepath.Join(pkgDir, "profiles", "default"), 0o755)
			os.WriteFile(filepath.Join(target, "pyproject.toml"),
				[]byte("[project]\nname = \"reachy-mini-conversation-app\"\n"), 0o644)
			os.WriteFile(filepath.Join(pkgDir, "config.py"),
				[]byte("LOCKED_PROFILE: str | None = None\n"), 0o644)
		}
		return exec.CommandContext(ctx, "true")
	}
	t.Cleanup(func() { execCommand = orig })

	dir := t.TempDir()
	result, err := Create(Options{Name: "my_chat_app", Template: TemplateConversation, Dir: dir})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var clone []string
	for _, call := range calls {
		if len(call) > 1 && call[1] == "clone" {
			clone = call
		}
	}
	if clone == nil {
		t.Fatal("no git clone recorded")
	}
	branched := false
	for i, arg := range clone {
		if arg == "-b" && i+1 < len(clone) && clone[i+1] == "develop" {
			branched = true
		}
	}
	if !branched {
		t.Errorf("clone args = %v, want -b develop", clone)
	}

	// Package renamed and profile locked in the src layout.
	pkgDir := filepath.Join(result.Path, "src", "my_chat_app")
	if _, err := os.Stat(filepath.Join(pkgDir, "profiles", "_my_chat_app_locked_profile", "tools.txt")); err != nil {
		t.Errorf("locked profile not created: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(pkgDir, "config.py"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), `"_my_chat_app_locked_profile"`) {
		t.Errorf("config.py not pinned:\n%s", got)
	}
}
