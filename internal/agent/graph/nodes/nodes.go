package nodes

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/Chative-shopping-guide/server/internal/agent/model"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
)

const (
	NodeOffTopic      = "OffTopic"
	NodeAfterSales    = "AfterSales"
	NodeBaseReply     = "BaseReply"
	NodeToolAugmenter = "ToolAugmenter"
	NodeFinalizer     = "Finalizer"
)

// Fixed replies.
const (
	OffTopicMessage    = "不好意思，我主要负责电商购物导购哦～你想了解哪类商品？（如美妆/服装/家电）"
	AfterSalesMessage  = "我们支持7天无理由退换货，商品保质期以包装为准，有购物需求可以继续问我～"
	UnavailableMessage = "暂时无法处理你的请求，请稍后再试～"
	EmptyInputMessage  = "你还没说想买什么哦～"
)

// ReplyGenerator produces the model reply for one message and owns the
// session's conversation memory.
type ReplyGenerator interface {
	Generate(ctx context.Context, sessionID, query string) (string, error)
	Reset(ctx context.Context, sessionID string) error
}

type Retriever interface {
	Retrieve(ctx context.Context, text string) model.RetrievalResult
}

type CouponResolver interface {
	Resolve(ctx context.Context, ids []string) model.CouponResult
}

// NewRoutePreHandler records the node in the per-invocation route.
func NewRoutePreHandler[I any](node string) func(context.Context, I, *model.TurnState) (I, error) {
	return func(_ context.Context, in I, s *model.TurnState) (I, error) {
		s.Route = append(s.Route, node)
		return in, nil
	}
}

// NewInputPreHandler stores the session id before the first node runs.
func NewInputPreHandler(node string) func(context.Context, model.ChatInput, *model.TurnState) (model.ChatInput, error) {
	return func(_ context.Context, in model.ChatInput, s *model.TurnState) (model.ChatInput, error) {
		if s.SessionID == "" {
			s.SessionID = in.SessionID
		}
		s.Route = append(s.Route, node)
		return in, nil
	}
}

// NewIntentCondition routes START to one of the intercepts or to the reply node.
func NewIntentCondition(classifier *IntentClassifier) func(context.Context, model.ChatInput) (string, error) {
	return func(_ context.Context, in model.ChatInput) (string, error) {
		intent := classifier.Classify(in.Query)
		logx.Debug().Str("session_id", in.SessionID).Str("intent", string(intent)).Msg("Message classified")
		switch intent {
		case model.IntentOffTopic:
			return NodeOffTopic, nil
		case model.IntentAfterSales:
			return NodeAfterSales, nil
		default:
			return NodeBaseReply, nil
		}
	}
}

// NewFixedReplyNode answers with message and ends the turn.
func NewFixedReplyNode(intent model.Intent, message string) *compose.Lambda {
	return compose.InvokableLambda(func(_ context.Context, in model.ChatInput) (model.Turn, error) {
		return model.Turn{
			SessionID: in.SessionID,
			Query:     in.Query,
			Intent:    intent,
			Reply:     message,
			Terminal:  true,
		}, nil
	})
}

// NewBaseReplyNode calls the reply generator. A failure becomes the terminal
// unavailable message rather than a graph error.
func NewBaseReplyNode(reply ReplyGenerator) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.ChatInput) (model.Turn, error) {
		turn := model.Turn{SessionID: in.SessionID, Query: in.Query, Intent: model.IntentConversational}

		text, err := reply.Generate(ctx, in.SessionID, in.Query)
		if err != nil {
			logx.Error().Err(err).Str("session_id", in.SessionID).Str("node", NodeBaseReply).Msg("Reply generation failed")
			turn.Reply = UnavailableMessage
			turn.Terminal = true
			return turn, nil
		}
		turn.Reply = text
		return turn, nil
	})
}

// NewToolCondition sends successful replies to a recommendation request
// through the tool augmenter.
func NewToolCondition(classifier *IntentClassifier) func(context.Context, model.Turn) (string, error) {
	return func(_ context.Context, turn model.Turn) (string, error) {
		if !turn.Terminal && classifier.WantsTools(turn.Query) {
			return NodeToolAugmenter, nil
		}
		return NodeFinalizer, nil
	}
}

// NewToolAugmenterNode appends the product list and coupon summary. Coupon
// lookup uses the ids returned by retrieval.
func NewToolAugmenterNode(retriever Retriever, coupons CouponResolver) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, turn model.Turn) (model.Turn, error) {
		products := retriever.Retrieve(ctx, turn.Query)
		couponInfo := coupons.Resolve(ctx, products.ProductIDs)

		turn.Reply = turn.Reply + "\n\n" + products.Content + "\n\n" + couponInfo.Content
		turn.Augmented = true
		return turn, nil
	})
}

// NewFinalizerNode caps the reply at maxLength characters. No ellipsis is added.
func NewFinalizerNode(maxLength int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, turn model.Turn) (string, error) {
		var route []string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			route = append(route, s.Route...)
			return nil
		}); err != nil {
			logx.Debug().Err(err).Str("node", NodeFinalizer).Msg("Turn state unavailable")
		}
		logx.Debug().
			Str("session_id", turn.SessionID).
			Str("intent", string(turn.Intent)).
			Bool("augmented", turn.Augmented).
			Str("route", strings.Join(route, ">")).
			Msg("Turn finished")

		return Truncate(turn.Reply, maxLength), nil
	})
}

// Truncate keeps the first max runes of s; a non-positive max disables the cap.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// ErrNilDependency is returned by the graph builder for missing collaborators.
var ErrNilDependency = errors.New("graph dependency is nil")
