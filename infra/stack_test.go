package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterStack(t *testing.T) {
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node is required to synthesize stacks")
	}
	defer jsii.Close()

	asset := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(asset, "invoke-counter"), []byte("binary"), 0o755))

	app := awscdk.NewApp(nil)
	stack := NewCounterStack(app, "TestStack", &CounterStackProps{AssetPath: asset})

	template := assertions.Template_FromStack(stack)

	template.HasResourceProperties(jsii.String("AWS::DynamoDB::Table"), map[string]interface{}{
		"BillingMode": "PAY_PER_REQUEST",
		"KeySchema": []interface{}{
			map[string]interface{}{"AttributeName": "pk", "KeyType": "HASH"},
			map[string]interface{}{"AttributeName": "sk", "KeyType": "RANGE"},
		},
		"TimeToLiveSpecification": map[string]interface{}{"AttributeName": "expires_at", "Enabled": true},
	})

	template.HasResourceProperties(jsii.String("AWS::Lambda::Function"), map[string]interface{}{
		"Handler": "invoke-counter",
		"Runtime": "go1.x",
	})

	template.ResourceCountIs(jsii.String("AWS::ApiGatewayV2::Route"), jsii.Number(2))
	template.HasResourceProperties(jsii.String("AWS::ApiGatewayV2::Route"), map[string]interface{}{
		"RouteKey": "POST /counters/{key}/{entry_point}",
	})
	template.HasResourceProperties(jsii.String("AWS::ApiGatewayV2::Integration"), map[string]interface{}{
		"PayloadFormatVersion": "2.0",
	})
}

func TestCounterStackRequiresAsset(t *testing.T) {
	assert.Panics(t, func() { NewCounterStack(nil, "NoProps", nil) })
	assert.Panics(t, func() { NewCounterStack(nil, "NoAsset", &CounterStackProps{}) })
}
