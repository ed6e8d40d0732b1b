package region

// greaterBoston lists the postal codes of the Greater Boston metro area
// (Suffolk county plus the inner Middlesex, Norfolk, Essex and Plymouth
// communities).
var greaterBoston = []int{
	// Boston
	2108, 2109, 2110, 2111, 2112, 2113, 2114, 2115, 2116, 2117, 2118, 2119,
	2120, 2121, 2122, 2123, 2124, 2125, 2126, 2127, 2128, 2129, 2130, 2131,
	2132, 2133, 2134, 2135, 2136, 2137, 2163, 2196, 2199, 2201, 2203, 2204,
	2205, 2206, 2210, 2211, 2212, 2215, 2217, 2222, 2228, 2241, 2266, 2283,
	2284, 2293, 2297, 2298,
	// Cambridge, Somerville
	2138, 2139, 2140, 2141, 2142, 2238, 2143, 2144, 2145,
	// Malden, Everett, Chelsea, Revere, Winthrop, Medford, Melrose
	2148, 2149, 2150, 2151, 2152, 2153, 2155, 2156, 2176,
	// Stoneham, Quincy, Braintree, Milton, Weymouth
	2180, 2169, 2170, 2171, 2184, 2185, 2186, 2187, 2188, 2189, 2190, 2191,
	// Brookline, Newton, Watertown, Waltham
	2445, 2446, 2447, 2458, 2459, 2460, 2461, 2462, 2464, 2465, 2466, 2467,
	2468, 2471, 2472, 2451, 2452, 2453, 2454, 2455,
	// Arlington, Belmont, Lexington, Wellesley, Needham, Weston
	2474, 2475, 2476, 2477, 2478, 2479, 2420, 2421, 2481, 2482, 2492, 2494,
	2493,
	// Dedham, Westwood, Norwood, Canton, Dover, Randolph, Holbrook
	2026, 2027, 2090, 2062, 2021, 2030, 2368, 2343,
	// Hingham, Hull, Cohasset, Brockton
	2043, 2044, 2045, 2025, 2301, 2302, 2303,
	// Lynn, Saugus, Swampscott, Nahant, Marblehead, Salem, Peabody
	1901, 1902, 1903, 1904, 1905, 1906, 1907, 1908, 1945, 1970, 1960, 1961,
	// Lynnfield, Wakefield, Reading, Woburn, Winchester, Burlington
	1940, 1880, 1867, 1801, 1888, 1890, 1803, 1805,
	// Bedford, Concord, Lincoln, Sudbury, Wayland
	1730, 1731, 1742, 1773, 1776, 1778,
	// Framingham, Natick, Sherborn
	1701, 1702, 1703, 1704, 1705, 1760, 1770,
}
