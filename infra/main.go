package main

import (
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

const defaultAssetPath = "../samples/counter/serverless/invoke-counter/dist"

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)

	asset := os.Getenv("COUNTER_LAMBDA_ASSET")
	if asset == "" {
		asset = defaultAssetPath
	}

	NewCounterStack(app, "WeeContractsCounter", &CounterStackProps{
		StackProps: awscdk.StackProps{Env: env()},
		AssetPath:  asset,
	})

	app.Synth(nil)
}

func env() *awscdk.Environment {
	account, region := os.Getenv("CDK_DEFAULT_ACCOUNT"), os.Getenv("CDK_DEFAULT_REGION")
	if account == "" || region == "" {
		return nil
	}

	return &awscdk.Environment{Account: jsii.String(account), Region: jsii.String(region)}
}
