package integration

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	integrationCommandTimeout   = 20 * time.Second
	integrationCertificateName  = "truststore-integration"
	fakeCertutilLogEnvironment  = "TRUSTSTORE_TEST_CERTUTIL_LOG_FILE"
	fakeCertutilFailEnvironment = "TRUSTSTORE_TEST_CERTUTIL_FAIL"
)

func TestCommandLineExitCodes(t *testing.T) {
	repositoryRoot := getRepositoryRoot(t)
	binaryPath := buildTruststoreBinary(t, repositoryRoot)
	certificatePath, _ := generateSelfSignedCertificatePair(t)
	isolatedEnvironment := map[string]string{"XDG_CONFIG_HOME": t.TempDir()}

	runCommandExpectExitCode(t, repositoryRoot, binaryPath, []string{"--help"}, isolatedEnvironment, 0)
	runCommandExpectExitCode(t, repositoryRoot, binaryPath, []string{"install", integrationCertificateName}, isolatedEnvironment, 1)
	runCommandExpectExitCode(t, repositoryRoot, binaryPath, []string{"--flavor", "java", "install", integrationCertificateName, certificatePath}, isolatedEnvironment, 1)
	runCommandExpectExitCode(t, repositoryRoot, binaryPath, []string{"--flavor", "nss", "uninstall", integrationCertificateName}, isolatedEnvironment, 1)
	runCommandExpectExitCode(t, repositoryRoot, binaryPath, []string{"--logging-type", "broken", "detect"}, isolatedEnvironment, 1)
	runCommandExpectExitCode(t, repositoryRoot, binaryPath, []string{"install", "../escape", certificatePath}, isolatedEnvironment, 1)

	unsupportedOutput := runCommandExpectExitCode(
		t,
		repositoryRoot,
		binaryPath,
		[]string{"--flavor", "java", "uninstall", integrationCertificateName},
		map[string]string{"XDG_CONFIG_HOME": t.TempDir(), "TRUSTSTORE_LOGGING_TYPE": "JSON"},
		1,
	)
	if !strings.Contains(unsupportedOutput, "unsupported trust store flavor") {
		t.Fatalf("expected unsupported flavor error in output:\n%s", unsupportedOutput)
	}
}

func TestNSSFlavorDrivesCertutil(t *testing.T) {
	repositoryRoot := getRepositoryRoot(t)
	binaryPath := buildTruststoreBinary(t, repositoryRoot)
	certificatePath, _ := generateSelfSignedCertificatePair(t)
	fakeToolsDirectory := createFakeCertutil(t)
	certutilLogPath := filepath.Join(t.TempDir(), "certutil.log")

	profilesRoot := t.TempDir()
	for _, profileName := range []string{"alpha.default", "beta.default-release"} {
		profileDirectory := filepath.Join(profilesRoot, profileName)
		if makeErr := os.MkdirAll(profileDirectory, 0o755); makeErr != nil {
			t.Fatalf("create profile %s: %v", profileName, makeErr)
		}
		if writeErr := os.WriteFile(filepath.Join(profileDirectory, "cert9.db"), nil, 0o600); writeErr != nil {
			t.Fatalf("write nss database: %v", writeErr)
		}
	}
	if makeErr := os.MkdirAll(filepath.Join(profilesRoot, "Crash Reports"), 0o755); makeErr != nil {
		t.Fatalf("create non-profile directory: %v", makeErr)
	}

	environment := map[string]string{
		"XDG_CONFIG_HOME":          t.TempDir(),
		"PATH":                     fakeToolsDirectory + string(os.PathListSeparator) + os.Getenv("PATH"),
		fakeCertutilLogEnvironment: certutilLogPath,
	}
	nssArguments := []string{"--flavor", "nss", "--nss", "--nss-profile-dir", profilesRoot}

	runCommandExpectExitCode(t, repositoryRoot, binaryPath, append(nssArguments, "install", integrationCertificateName, certificatePath), environment, 0)
	runCommandExpectExitCode(t, repositoryRoot, binaryPath, append(nssArguments, "uninstall", integrationCertificateName), environment, 0)

	logLines := readCertutilInvocations(t, certutilLogPath)
	expectedLines := []string{
		fmt.Sprintf("-A -d sql:%s -t C,, -n %s", filepath.Join(profilesRoot, "alpha.default"), integrationCertificateName),
		fmt.Sprintf("-A -d sql:%s -t C,, -n %s", filepath.Join(profilesRoot, "beta.default-release"), integrationCertificateName),
		fmt.Sprintf("-D -d sql:%s -n %s", filepath.Join(profilesRoot, "alpha.default"), integrationCertificateName),
		fmt.Sprintf("-D -d sql:%s -n %s", filepath.Join(profilesRoot, "beta.default-release"), integrationCertificateName),
	}
	if len(logLines) != len(expectedLines) {
		t.Fatalf("expected %d certutil invocations, got %d:\n%s", len(expectedLines), len(logLines), strings.Join(logLines, "\n"))
	}
	for index, expectedLine := range expectedLines {
		if !strings.HasPrefix(logLines[index], expectedLine) {
			t.Fatalf("certutil invocation %d: expected prefix %q, got %q", index, expectedLine, logLines[index])
		}
	}

	environment[fakeCertutilFailEnvironment] = "1"
	runCommandExpectExitCode(t, repositoryRoot, binaryPath, append(nssArguments, "install", integrationCertificateName, certificatePath), environment, 1)
}

func readCertutilInvocations(testingT *testing.T, logPath string) []string {
	testingT.Helper()
	logContent, readErr := os.ReadFile(logPath)
	if readErr != nil {
		testingT.Fatalf("read certutil log: %v", readErr)
	}
	return strings.Split(strings.TrimSpace(string(logContent)), "\n")
}

func createFakeCertutil(testingT *testing.T) string {
	testingT.Helper()
	toolsDirectory := testingT.TempDir()
	certutilScript := "#!/usr/bin/env bash\nset -euo pipefail\nif [ \"${" + fakeCertutilLogEnvironment + ":-}\" != \"\" ]; then\n  echo \"$*\" >> \"${" + fakeCertutilLogEnvironment + "}\"\nfi\nif [ \"${" + fakeCertutilFailEnvironment + ":-0}\" = \"1\" ]; then\n  echo \"SEC_ERROR_BAD_DATABASE\" >&2\n  exit 1\nfi\nexit 0\n"
	writeExecutableScript(testingT, filepath.Join(toolsDirectory, "certutil"), certutilScript)
	return toolsDirectory
}

func buildTruststoreBinary(testingT *testing.T, repositoryRoot string) string {
	testingT.Helper()
	binaryPath := filepath.Join(testingT.TempDir(), "truststore-integration")
	buildCommand := exec.Command("go", "build", "-o", binaryPath, "./cmd/truststore/main.go")
	buildCommand.Dir = repositoryRoot
	buildOutput, buildErr := buildCommand.CombinedOutput()
	if buildErr != nil {
		testingT.Fatalf("build integration binary: %v\n%s", buildErr, string(buildOutput))
	}
	return binaryPath
}

func runCommandExpectExitCode(testingT *testing.T, repositoryRoot string, binaryPath string, arguments []string, environmentVariables map[string]string, expectedExitCode int) string {
	testingT.Helper()
	commandContext, cancelCommand := context.WithTimeout(context.Background(), integrationCommandTimeout)
	defer cancelCommand()
	command := exec.CommandContext(commandContext, binaryPath, arguments...)
	command.Dir = repositoryRoot
	command.Env = append(os.Environ(), formatEnvironmentVariables(environmentVariables)...)
	outputBytes, runErr := command.CombinedOutput()
	outputText := string(outputBytes)
	exitCode := 0
	if runErr != nil {
		if errors.Is(commandContext.Err(), context.DeadlineExceeded) {
			testingT.Fatalf("command %s %v exceeded timeout %s\n%s", binaryPath, arguments, integrationCommandTimeout, outputText)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			testingT.Fatalf("run command %s %v: %v\n%s", binaryPath, arguments, runErr, outputText)
		}
	}
	if exitCode != expectedExitCode {
		testingT.Fatalf("command %s %v expected exit %d, got %d\n%s", binaryPath, arguments, expectedExitCode, exitCode, outputText)
	}
	return outputText
}

func formatEnvironmentVariables(environmentVariables map[string]string) []string {
	formatted := make([]string, 0, len(environmentVariables))
	for key, value := range environmentVariables {
		formatted = append(formatted, key+"="+value)
	}
	return formatted
}

func writeExecutableScript(testingT *testing.T, scriptPath string, scriptContent string) {
	testingT.Helper()
	if writeErr := os.WriteFile(scriptPath, []byte(scriptContent), 0o755); writeErr != nil {
		testingT.Fatalf("write script %s: %v", scriptPath, writeErr)
	}
}

func getRepositoryRoot(testingT *testing.T) string {
	testingT.Helper()

	currentDirectory, directoryError := os.Getwd()
	if directoryError != nil {
		testingT.Fatalf("resolve working directory: %v", directoryError)
	}

	for {
		moduleFilePath := filepath.Join(currentDirectory, "go.mod")
		if _, statError := os.Stat(moduleFilePath); statError == nil {
			return currentDirectory
		}

		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			testingT.Fatal("could not locate repository root")
		}
		currentDirectory = parentDirectory
	}
}

func generateSelfSignedCertificatePair(testingT *testing.T) (string, string) {
	testingT.Helper()
	privateKey, keyErr := rsa.GenerateKey(rand.Reader, 2048)
	if keyErr != nil {
		testingT.Fatalf("generate tls key: %v", keyErr)
	}
	serialNumberUpperBound := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, serialErr := rand.Int(rand.Reader, serialNumberUpperBound)
	if serialErr != nil {
		testingT.Fatalf("generate tls serial: %v", serialErr)
	}
	now := time.Now()
	certificateTemplate := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName: "truststore integration",
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	certificateDERBytes, certificateErr := x509.CreateCertificate(rand.Reader, &certificateTemplate, &certificateTemplate, &privateKey.PublicKey, privateKey)
	if certificateErr != nil {
		testingT.Fatalf("create tls certificate: %v", certificateErr)
	}
	certificatePEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certificateDERBytes})
	privateKeyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)})

	certificatePath := filepath.Join(testingT.TempDir(), "cert.pem")
	privateKeyPath := filepath.Join(testingT.TempDir(), "key.pem")
	if writeErr := os.WriteFile(certificatePath, certificatePEM, 0o644); writeErr != nil {
		testingT.Fatalf("write tls cert pem: %v", writeErr)
	}
	if writeErr := os.WriteFile(privateKeyPath, privateKeyPEM, 0o600); writeErr != nil {
		testingT.Fatalf("write tls key pem: %v", writeErr)
	}
	return certificatePath, privateKeyPath
}
