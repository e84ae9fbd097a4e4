package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/weegigs/wee-contracts-go/stores/ds"
)

type CounterStackProps struct {
	awscdk.StackProps
	// AssetPath is the directory holding the compiled invoke-counter binary.
	AssetPath string
}

// NewCounterStack provisions the ledger table and exposes invoke-counter over an HTTP API. props must name the
// asset path.
func NewCounterStack(scope constructs.Construct, id string, props *CounterStackProps) awscdk.Stack {
	if props == nil || props.AssetPath == "" {
		panic("counter stack requires the invoke-counter asset path")
	}
	stack := awscdk.NewStack(scope, &id, &props.StackProps)

	table := awsdynamodb.NewTable(stack, jsii.String("Ledger"), &awsdynamodb.TableProps{
		PartitionKey:        &awsdynamodb.Attribute{Name: jsii.String("pk"), Type: awsdynamodb.AttributeType_STRING},
		SortKey:             &awsdynamodb.Attribute{Name: jsii.String("sk"), Type: awsdynamodb.AttributeType_STRING},
		BillingMode:         awsdynamodb.BillingMode_PAY_PER_REQUEST,
		TimeToLiveAttribute: jsii.String(ds.ExpiresAtAttribute),
		RemovalPolicy:       awscdk.RemovalPolicy_DESTROY,
	})

	handler := awslambda.NewFunction(stack, jsii.String("InvokeCounter"), &awslambda.FunctionProps{
		Runtime:    awslambda.Runtime_GO_1_X(),
		Handler:    jsii.String("invoke-counter"),
		Code:       awslambda.Code_FromAsset(jsii.String(props.AssetPath), nil),
		MemorySize: jsii.Number(256),
		Timeout:    awscdk.Duration_Seconds(jsii.Number(10)),
		Tracing:    awslambda.Tracing_ACTIVE,
		Environment: &map[string]*string{
			ds.LedgerTableNameVariable: table.TableName(),
		},
	})
	table.GrantReadWriteData(handler)

	api := awsapigatewayv2.NewCfnApi(stack, jsii.String("Api"), &awsapigatewayv2.CfnApiProps{
		Name:         jsii.String(id),
		ProtocolType: jsii.String("HTTP"),
	})

	integration := awsapigatewayv2.NewCfnIntegration(stack, jsii.String("Integration"), &awsapigatewayv2.CfnIntegrationProps{
		ApiId:                api.Ref(),
		IntegrationType:      jsii.String("AWS_PROXY"),
		IntegrationUri:       handler.FunctionArn(),
		PayloadFormatVersion: jsii.String("2.0"),
	})

	target := awscdk.Fn_Join(jsii.String("/"), &[]*string{jsii.String("integrations"), integration.Ref()})
	for _, method := range []string{"GET", "POST"} {
		awsapigatewayv2.NewCfnRoute(stack, jsii.String(method+"Route"), &awsapigatewayv2.CfnRouteProps{
			ApiId:    api.Ref(),
			RouteKey: jsii.String(method + " /counters/{key}/{entry_point}"),
			Target:   target,
		})
	}

	awsapigatewayv2.NewCfnStage(stack, jsii.String("DefaultStage"), &awsapigatewayv2.CfnStageProps{
		ApiId:      api.Ref(),
		StageName:  jsii.String("$default"),
		AutoDeploy: jsii.Bool(true),
	})

	handler.AddPermission(jsii.String("ApiInvoke"), &awslambda.Permission{
		Principal: awsiam.NewServicePrincipal(jsii.String("apigateway.amazonaws.com"), nil),
	})

	awscdk.NewCfnOutput(stack, jsii.String("Endpoint"), &awscdk.CfnOutputProps{Value: api.AttrApiEndpoint()})
	awscdk.NewCfnOutput(stack, jsii.String("LedgerTable"), &awscdk.CfnOutputProps{Value: table.TableName()})

	return stack
}
