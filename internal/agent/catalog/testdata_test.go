package catalog

const sampleCSV = `product_id,name,category,price,budget_range,suitable_for,parameters,advantages,disadvantages,coupon_id,coupon_amount,coupon_condition
1001,控油持妆粉底液A,美妆-粉底液,450,300-500,油性皮肤,持妆8小时,控油不脱妆,色号偏黄,C001,50,400
1002,水润粉底液B,美妆-粉底液,320,300-500,"干性皮肤, 混合性皮肤",滋润,保湿服帖,持妆一般,,,
1003,哑光口红C,美妆-口红,180,100-200,浅唇,,显色,,C003,20,150
,缺少编号的商品,美妆,99,,,,,,,,
1004,,美妆,99,,,,,,,,
1005,价格错误,美妆,abc,,,,,,,,
1006,负价格,美妆,-5,,,,,,,,
1001,重复编号,美妆-粉底液,10,,,,,,,,
1007,滋润面霜D,美妆-面霜,260,200-300,干性皮肤,,,,C007,-10,200
`
