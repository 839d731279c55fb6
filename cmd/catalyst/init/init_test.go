package initcmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/catalyst/cmd/catalyst/init"
	"github.com/papercomputeco/catalyst/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).NotTo(Succeed())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir = GinkgoT().TempDir()

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	execute := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	It("creates a .catalyst directory with a default config", func() {
		Expect(execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".catalyst"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.LLM.Provider).To(Equal("openai"))
		Expect(cfg.API.Listen).To(Equal(":8081"))
		Expect(cfg.Client.APITarget).To(Equal("http://localhost:8081"))
	})

	It("does not overwrite existing contents when already initialized", func() {
		dir := filepath.Join(tmpDir, ".catalyst")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())

		configPath := filepath.Join(dir, "config.toml")
		Expect(os.WriteFile(configPath, []byte("[llm]\nprovider = \"ollama\"\n"), 0o600)).To(Succeed())
		sessionPath := filepath.Join(dir, "session.json")
		Expect(os.WriteFile(sessionPath, []byte(`{"target":"x"}`), 0o600)).To(Succeed())

		Expect(execute()).To(Succeed())

		Expect(loadConfig(tmpDir).LLM.Provider).To(Equal("ollama"))
		data, err := os.ReadFile(sessionPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"target":"x"}`))
	})

	Describe("--preset with provider presets", func() {
		It("creates config.toml with the openai preset", func() {
			Expect(execute("--preset", "openai")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.LLM.Provider).To(Equal("openai"))
			Expect(cfg.LLM.Upstream).To(Equal("https://api.openai.com"))
			Expect(cfg.LLM.APIKeyEnv).To(Equal("OPENAI_API_KEY"))
		})

		It("creates config.toml with the anthropic preset", func() {
			Expect(execute("--preset", "anthropic")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.LLM.Provider).To(Equal("anthropic"))
			Expect(cfg.LLM.Upstream).To(Equal("https://api.anthropic.com"))
		})

		It("creates config.toml with the ollama preset", func() {
			Expect(execute("--preset", "ollama")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.LLM.Provider).To(Equal("ollama"))
			Expect(cfg.LLM.Upstream).To(Equal("http://localhost:11434"))
			Expect(cfg.LLM.Model).To(Equal("qwen2.5"))
		})

		It("overwrites config.toml when re-run with a different preset", func() {
			Expect(execute("--preset", "openai")).To(Succeed())
			Expect(execute("--preset", "anthropic")).To(Succeed())
			Expect(loadConfig(tmpDir).LLM.Provider).To(Equal("anthropic"))
		})

		It("rejects unknown preset names without creating the directory", func() {
			err := execute("--preset", "invalid-provider")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown preset"))

			_, statErr := os.Stat(filepath.Join(tmpDir, ".catalyst"))
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})
	})

	Describe("--preset with remote URL", func() {
		It("fetches and writes remote config.toml", func() {
			remoteCfg := `version = 0

[llm]
provider = "ollama"
upstream = "http://gpu-box:11434"
model = "qwen2.5:14b"

[client]
participant = "facilitator"
`
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				fmt.Fprint(w, remoteCfg)
			}))
			defer server.Close()

			Expect(execute("--preset", server.URL)).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.LLM.Provider).To(Equal("ollama"))
			Expect(cfg.LLM.Upstream).To(Equal("http://gpu-box:11434"))
			Expect(cfg.LLM.Model).To(Equal("qwen2.5:14b"))
			Expect(cfg.Client.Participant).To(Equal("facilitator"))
		})

		It("returns error for non-200 HTTP response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			err := execute("--preset", server.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("HTTP 404"))
		})

		It("returns error for invalid TOML from URL", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			defer server.Close()

			err := execute("--preset", server.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing"))
		})

		It("returns error for unreachable URL", func() {
			err := execute("--preset", "http://127.0.0.1:1")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("fetching remote config"))
		})
	})
})

// loadConfig reads and parses config.toml from the .catalyst directory
// within baseDir.
func loadConfig(baseDir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(baseDir, ".catalyst", "config.toml"))
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	ExpectWithOffset(1, toml.Unmarshal(data, cfg)).To(Succeed())
	return cfg
}
