package pricing

import "github.com/bwmarrin/snowflake"

func testID(v int64) snowflake.ID { return snowflake.ID(v) }

func ptr(v int64) *int64 { return &v }
