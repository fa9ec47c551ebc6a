// Package deeplink maps inbound URLs to in-app navigation routes.
//
// Deep links arrive from many places (push notifications, shared web links,
// marketing redirects) and in many shapes:
//
//	http://localhost:8081/en/categories/133
//	https://shop.example.com/ar/products/55
//	/brands/12
//	shop://products/55
//
// A Resolver reduces every one of them to exactly one route from a small
// template table. Resolution is total: unrecognized or empty input yields the
// home route, never an error.
//
// # Algorithm
//
//  1. Empty input resolves to the home route.
//  2. A leading "http://host" or "https://host" prefix is stripped.
//  3. A leading locale segment ("en" or "ar" by default) is stripped and
//     reported in the Intent.
//  4. Rules are scanned in priority order (categories, products, brands); the
//     first rule whose "/keyword/" marker occurs in the path wins, even when a
//     lower-priority keyword appears earlier in the text.
//  5. The identifier is the text after the marker and is interpolated into the
//     rule template.
//
// # Identifiers
//
// By default the identifier is taken verbatim, so "/products/55/reviews"
// yields "55/reviews". Construct the resolver with
// WithIdentifierMode(IdentifierSegment) to cut the identifier at the next
// "/", "?" or "#" instead.
//
// # Usage
//
//	route := deeplink.Resolve("https://shop.example.com/en/products/55")
//	// route == "/product/55"
//
//	r := deeplink.MustNew(deeplink.WithHomeRoute("/(tabs)"))
//	intent := r.ResolveIntent("/ar/brands/12")
//	// intent.Kind == deeplink.KindBrand, intent.Locale == "ar"
package deeplink
