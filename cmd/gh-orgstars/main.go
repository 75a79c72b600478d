package main

import (
	"fmt"
	"log"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/stahnma/gh-orgstars/internal/commands"
	"github.com/stahnma/gh-orgstars/internal/config"
	lambdapkg "github.com/stahnma/gh-orgstars/internal/lambda"
	"github.com/stahnma/gh-orgstars/internal/secrets"
)

var (
	GitSHA   string
	GitDirty string
)

func main() {
	cfg, err := config.Load(os.Getenv("GH_ORGSTARS_CONFIG"))
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	inLambda := os.Getenv("LAMBDA_TASK_ROOT") != ""
	if inLambda {
		// No keychain or writable home directory inside Lambda.
		cfg.SecretsBackend = secrets.BackendEnv
	}

	app, err := commands.NewApp(cfg, GitSHA, GitDirty)
	if err != nil {
		log.Fatalf("Error initializing application: %v", err)
	}

	if inLambda {
		awslambda.Start(lambdapkg.NewHandler(app, lambdapkg.NewUploader))
		return
	}

	rootCmd := app.NewRootCommand()
	err = rootCmd.Execute()
	if cerr := app.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
