package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-shopping-guide/server/internal/agent/catalog"
	"github.com/Chative-shopping-guide/server/internal/agent/extract"
	"github.com/Chative-shopping-guide/server/internal/agent/model"
)

func amount(v float64) *float64 { return &v }

func testCatalog() []model.Product {
	products := []model.Product{
		{ID: "f1", Name: "控油粉底液A", Category: "美妆-粉底液", Price: 450, SuitableFor: "油性皮肤", Advantages: "控油持妆", Disadvantages: "偏干", CouponAmount: amount(50), CouponCondition: "400"},
		{ID: "f2", Name: "平价粉底液B", Category: "美妆-粉底液", Price: 129, SuitableFor: "油性皮肤, 混合性皮肤", Advantages: "性价比高", Disadvantages: "遮瑕一般"},
		{ID: "f3", Name: "哑光粉底液C", Category: "美妆-粉底液", Price: 299, SuitableFor: "油性皮肤", Advantages: "哑光", Disadvantages: "易卡粉", CouponAmount: amount(30), CouponCondition: "299"},
		{ID: "f4", Name: "轻薄粉底液D", Category: "美妆-粉底液", Price: 199, SuitableFor: "油性皮肤", Advantages: "轻薄", Disadvantages: "持妆短"},
		{ID: "f5", Name: "滋润粉底液E", Category: "美妆-粉底液", Price: 259, SuitableFor: "干性皮肤", Advantages: "滋润", Disadvantages: "油皮慎用"},
		{ID: "l1", Name: "润唇口红F", Category: "美妆-口红", Price: 99, SuitableFor: "干燥唇部", Advantages: "不拔干", Disadvantages: "颜色少", CouponAmount: amount(120), CouponCondition: "99"},
	}
	for i := range products {
		products[i].ApplyDefaults()
	}
	return products
}

type failingStore struct{ panics bool }

func (f failingStore) fail() error {
	if f.panics {
		panic("backend exploded")
	}
	return errors.New("backend unreachable")
}

func (f failingStore) Filter(context.Context, model.Filter) ([]model.Product, error) {
	return nil, f.fail()
}

func (f failingStore) LookupByIDs(context.Context, []string) ([]model.Product, error) {
	return nil, f.fail()
}

func (f failingStore) LookupByNames(context.Context, []string) ([]model.Product, error) {
	return nil, f.fail()
}

func (failingStore) Backend() string { return "failing" }

func newRetriever(store catalog.Store) *Retriever {
	return NewRetriever(store, extract.New(extract.DefaultMaxPrice), DefaultResultLimit)
}

func TestRetrieverRetrieve(t *testing.T) {
	r := newRetriever(catalog.NewMemoryStore(testCatalog()))

	res := r.Retrieve(context.Background(), "推荐500元以内适合油皮的粉底液")

	assert.Equal(t, []string{"f2", "f4", "f3"}, res.ProductIDs)
	assert.True(t, strings.HasPrefix(res.Content, "为你推荐以下符合需求的商品：\n"))
	assert.Contains(t, res.Content, "1. 平价粉底液B～原价¥129，折后¥129～优势：性价比高～\n")
	assert.Contains(t, res.Content, "3. 哑光粉底液C～原价¥299，折后¥269（满299减30元）～优势：哑光～\n")
	assert.NotContains(t, res.Content, "控油粉底液A", "only the three cheapest matches are kept")
}

func TestRetrieverRespectsBoundsAndCap(t *testing.T) {
	store := catalog.NewMemoryStore(testCatalog())
	r := newRetriever(store)
	queries := []string{
		"推荐200-300元的油皮粉底液",
		"推荐不超过1000的油性粉底液",
		"哪个好 粉底液 干皮",
		"推荐口红 干唇",
	}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			c := extract.New(extract.DefaultMaxPrice).Extract(q)
			res := r.Retrieve(context.Background(), q)
			assert.LessOrEqual(t, len(res.ProductIDs), DefaultResultLimit)

			products, err := store.LookupByIDs(context.Background(), res.ProductIDs)
			require.NoError(t, err)
			for _, p := range products {
				assert.True(t, model.Filter{Constraint: c}.Matches(p), "product %s violates %+v", p.ID, c)
			}
		})
	}
}

func TestRetrieverNoMatch(t *testing.T) {
	r := newRetriever(catalog.NewMemoryStore(testCatalog()))

	res := r.Retrieve(context.Background(), "我想买面霜")
	assert.Empty(t, res.ProductIDs)
	assert.Equal(t, "未找到符合条件的面霜，可调整预算再尝试～", res.Content)
}

func TestRetrieverFailuresAreRecovered(t *testing.T) {
	for name, store := range map[string]catalog.Store{
		"error": failingStore{},
		"panic": failingStore{panics: true},
	} {
		t.Run(name, func(t *testing.T) {
			res := newRetriever(store).Retrieve(context.Background(), "推荐粉底液")
			assert.Empty(t, res.ProductIDs)
			assert.NotNil(t, res.ProductIDs)
			assert.Equal(t, RetrievalFailedMessage, res.Content)
		})
	}
}

func TestRetrieverRoundTripFromCSV(t *testing.T) {
	const data = "product_id,name,category,price,suitable_for,advantages\n" +
		"9001,唯一面霜,美妆-面霜,188,干性皮肤,保湿\n" +
		"9002,另一款面霜,美妆-面霜,588,干性皮肤,修护\n"
	products, _, err := catalog.ReadCSV(strings.NewReader(data))
	require.NoError(t, err)

	r := newRetriever(catalog.NewMemoryStore(products))
	res := r.Retrieve(context.Background(), "推荐200元以内干皮面霜")
	assert.Equal(t, []string{"9001"}, res.ProductIDs)
}

func TestSubject(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "我想买粉底液", want: "粉底液"},
		{text: "买口红还是买面霜", want: "口红还是"},
		{text: "推荐粉底液", want: "商品"},
		{text: "我想买", want: "商品"},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, Subject(tc.text))
		})
	}
}

func TestCouponResolverResolve(t *testing.T) {
	c := NewCouponResolver(catalog.NewMemoryStore(testCatalog()))
	ctx := context.Background()

	assert.Equal(t, NoCouponInfoMessage, c.Resolve(ctx, nil).Content)
	assert.Equal(t, NoCouponInfoMessage, c.Resolve(ctx, []string{}).Content)

	res := c.Resolve(ctx, []string{"f2", "f3", "f1"})
	assert.Equal(t, "🎫 可用优惠券汇总：\n"+
		"- 哑光粉底液C：满299减30元，折后¥269\n"+
		"- 控油粉底液A：满400减50元，折后¥400\n", res.Content)
}

func TestCouponResolverEdgeCases(t *testing.T) {
	c := NewCouponResolver(catalog.NewMemoryStore(testCatalog()))
	ctx := context.Background()

	assert.Equal(t, NoProductCouponMessage, c.Resolve(ctx, []string{"f2", "f4"}).Content)
	assert.Equal(t, NoProductCouponMessage, c.Resolve(ctx, []string{"unknown"}).Content)

	res := c.Resolve(ctx, []string{"l1"})
	assert.Contains(t, res.Content, "折后¥0", "coupon larger than price never goes negative")

	assert.Equal(t, CouponFailedMessage, NewCouponResolver(failingStore{}).Resolve(ctx, []string{"f1"}).Content)
	assert.Equal(t, CouponFailedMessage, NewCouponResolver(failingStore{panics: true}).Resolve(ctx, []string{"f1"}).Content)
}

func TestCouponResolverNegativeAmount(t *testing.T) {
	store := catalog.NewMemoryStore([]model.Product{
		{ID: "n1", Name: "滋润面霜N", Category: "护肤-面霜", Price: 260, CouponAmount: amount(-10), CouponCondition: "200"},
	})

	res := NewCouponResolver(store).Resolve(context.Background(), []string{"n1"})
	assert.Equal(t, "🎫 可用优惠券汇总：\n- 滋润面霜N：满200减0元，折后¥260\n", res.Content)
}

func TestComparatorCompare(t *testing.T) {
	c := NewComparator(catalog.NewMemoryStore(testCatalog()))
	ctx := context.Background()

	tests := []struct {
		name     string
		names    []string
		contains []string
		equals   string
	}{
		{name: "empty", names: nil, equals: CompareNotFoundMessage},
		{name: "no match", names: []string{"不存在A", "不存在B"}, equals: CompareNotFoundMessage},
		{
			name:  "two matches",
			names: []string{"哑光粉底液C", "平价粉底液B"},
			contains: []string{
				compareTableHeader,
				"| 平价粉底液B | ¥129 | 油性皮肤, 混合性皮肤 | 性价比高 | 遮瑕一般 |\n",
				"| 哑光粉底液C | ¥299 | 油性皮肤 | 哑光 | 易卡粉 |\n",
				"\n总结：哑光粉底液C和平价粉底液B各有优势，可根据你的肤质/预算选择～",
			},
		},
		{
			name:     "one match",
			names:    []string{"平价粉底液B", "不存在"},
			contains: []string{"| 平价粉底液B |", CompareHintMessage},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Compare(ctx, tc.names)
			if tc.equals != "" {
				assert.Equal(t, tc.equals, got)
				return
			}
			for _, s := range tc.contains {
				assert.Contains(t, got, s)
			}
		})
	}
}

func TestComparatorFailures(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, CompareNotFoundMessage, NewComparator(failingStore{}).Compare(ctx, []string{"a", "b"}))
	assert.Equal(t, CompareNotFoundMessage, NewComparator(failingStore{panics: true}).Compare(ctx, []string{"a", "b"}))
}
