package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/Chative-shopping-guide/server/internal/agent/graph/nodes"
	"github.com/Chative-shopping-guide/server/internal/agent/model"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
)

const maxRunSteps = 10

// Runner handles one user message per call. It never fails: every path ends
// in a reply string.
type Runner interface {
	Handle(ctx context.Context, sessionID, text string) string
	Reset(ctx context.Context, sessionID string) error
}

// Config holds the collaborators and limits of the dialogue graph.
type Config struct {
	Reply     nodes.ReplyGenerator
	Retriever nodes.Retriever
	Coupons   nodes.CouponResolver
	Intent    model.IntentConfig
	Response  model.ResponseConfig
}

// GraphBuilder handles the construction of the dialogue graph
type GraphBuilder struct {
	config     *Config
	classifier *nodes.IntentClassifier
	graph      *compose.Graph[model.ChatInput, string]
}

type graphRunner struct {
	runnable compose.Runnable[model.ChatInput, string]
	reply    nodes.ReplyGenerator
}

func (r *graphRunner) Handle(ctx context.Context, sessionID, text string) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			logx.Error().Interface("panic", rec).Str("session_id", sessionID).Msg("Dialogue graph panicked")
			out = nodes.UnavailableMessage
		}
	}()

	out, err := r.runnable.Invoke(ctx, model.ChatInput{SessionID: sessionID, Query: text})
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("Dialogue graph failed")
		return nodes.UnavailableMessage
	}
	return out
}

func (r *graphRunner) Reset(ctx context.Context, sessionID string) error {
	return r.reply.Reset(ctx, sessionID)
}

// BuildGraph constructs and compiles the dialogue graph.
func BuildGraph(ctx context.Context, config Config) (Runner, error) {
	if config.Reply == nil || config.Retriever == nil || config.Coupons == nil {
		return nil, fmt.Errorf("build dialogue graph: %w", nodes.ErrNilDependency)
	}

	builder := &GraphBuilder{
		config:     &config,
		classifier: nodes.NewIntentClassifier(config.Intent),
		graph: compose.NewGraph[model.ChatInput, string](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	runnable, err := builder.compile(ctx)
	if err != nil {
		return nil, err
	}
	return &graphRunner{runnable: runnable, reply: config.Reply}, nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	steps := []struct {
		key  string
		node *compose.Lambda
		opts []compose.GraphAddNodeOpt
	}{
		{
			key:  nodes.NodeOffTopic,
			node: nodes.NewFixedReplyNode(model.IntentOffTopic, nodes.OffTopicMessage),
			opts: []compose.GraphAddNodeOpt{compose.WithStatePreHandler(nodes.NewInputPreHandler(nodes.NodeOffTopic))},
		},
		{
			key:  nodes.NodeAfterSales,
			node: nodes.NewFixedReplyNode(model.IntentAfterSales, nodes.AfterSalesMessage),
			opts: []compose.GraphAddNodeOpt{compose.WithStatePreHandler(nodes.NewInputPreHandler(nodes.NodeAfterSales))},
		},
		{
			key:  nodes.NodeBaseReply,
			node: nodes.NewBaseReplyNode(b.config.Reply),
			opts: []compose.GraphAddNodeOpt{compose.WithStatePreHandler(nodes.NewInputPreHandler(nodes.NodeBaseReply))},
		},
		{
			key:  nodes.NodeToolAugmenter,
			node: nodes.NewToolAugmenterNode(b.config.Retriever, b.config.Coupons),
			opts: []compose.GraphAddNodeOpt{compose.WithStatePreHandler(nodes.NewRoutePreHandler[model.Turn](nodes.NodeToolAugmenter))},
		},
		{
			key:  nodes.NodeFinalizer,
			node: nodes.NewFinalizerNode(b.config.Response.MaxLength),
			opts: []compose.GraphAddNodeOpt{compose.WithStatePreHandler(nodes.NewRoutePreHandler[model.Turn](nodes.NodeFinalizer))},
		},
	}

	for _, s := range steps {
		if err := b.graph.AddLambdaNode(s.key, s.node, s.opts...); err != nil {
			logx.Error().Err(err).Str("node", s.key).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", s.key, err)
		}
	}
	return nil
}

// addEdges creates the fixed connections into the finalizer
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{nodes.NodeOffTopic, nodes.NodeFinalizer},
		{nodes.NodeAfterSales, nodes.NodeFinalizer},
		{nodes.NodeToolAugmenter, nodes.NodeFinalizer},
		{nodes.NodeFinalizer, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s->%s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	intentBranch := compose.NewGraphBranch(
		nodes.NewIntentCondition(b.classifier),
		map[string]bool{
			nodes.NodeOffTopic:   true,
			nodes.NodeAfterSales: true,
			nodes.NodeBaseReply:  true,
		},
	)
	if err := b.graph.AddBranch(compose.START, intentBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding intent branch")
		return fmt.Errorf("error adding intent branch: %w", err)
	}

	toolBranch := compose.NewGraphBranch(
		nodes.NewToolCondition(b.classifier),
		map[string]bool{
			nodes.NodeToolAugmenter: true,
			nodes.NodeFinalizer:     true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeBaseReply, toolBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding tool branch")
		return fmt.Errorf("error adding tool branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.ChatInput, string], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Dialogue graph compiled successfully")
	return runnable, nil
}
